package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"task-tracker/backend/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	id, err := s.nextID(ctx, colUsers)
	if err != nil {
		return err
	}
	u.ID = id
	if _, err := s.col(colUsers).InsertOne(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", classify(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.col(colUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.col(colUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, s.col(colUsers), bson.M{}, bson.D{{Key: "_id", Value: 1}})
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.col(colUsers).ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	return matchedOrNotFound(res, err)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	created, err := s.taskIDs(ctx, bson.M{"creatorId": id})
	if err != nil {
		return err
	}
	steps := []func() error{
		func() error {
			_, err := s.col(colComments).DeleteMany(ctx, bson.M{"$or": bson.A{
				bson.M{"authorId": id},
				bson.M{"taskId": bson.M{"$in": created}},
			}})
			return err
		},
		func() error {
			_, err := s.col(colTasks).DeleteMany(ctx, bson.M{"creatorId": id})
			return err
		},
		func() error {
			_, err := s.col(colTasks).UpdateMany(ctx, bson.M{"assigneeId": id}, bson.M{"$unset": bson.M{"assigneeId": ""}})
			return err
		},
		func() error {
			_, err := s.col(colProjects).UpdateMany(ctx, bson.M{"members": id}, bson.M{"$pull": bson.M{"members": id}})
			return err
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("delete user dependents: %w", err)
		}
	}
	return deletedOrNotFound(s.col(colUsers).DeleteOne(ctx, bson.M{"_id": id}))
}
