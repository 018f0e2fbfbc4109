package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
)

func (s *Store) insertLookup(ctx context.Context, collection string, setID func(int64), doc any) error {
	id, err := s.nextID(ctx, collection)
	if err != nil {
		return err
	}
	setID(id)
	if _, err := s.col(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create %s: %w", collection, classify(err))
	}
	return nil
}

func (s *Store) getLookup(ctx context.Context, collection string, id int64, out any) error {
	return classify(s.col(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out))
}

func (s *Store) replaceLookup(ctx context.Context, collection string, id int64, doc any) error {
	res, err := s.col(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	return matchedOrNotFound(res, err)
}

// reassignTasks moves tasks off a status or priority that is about to be
// deleted onto the lowest remaining id of the same collection.
func (s *Store) reassignTasks(ctx context.Context, collection, taskField string, id int64) error {
	refs, err := s.col(colTasks).CountDocuments(ctx, bson.M{taskField: id})
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	if refs == 0 {
		return nil
	}
	var fallback struct {
		ID int64 `bson:"_id"`
	}
	err = s.col(collection).FindOne(ctx,
		bson.M{"_id": bson.M{"$ne": id}},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}),
	).Decode(&fallback)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("delete %s %d: %w", collection, id, repositories.ErrInUse)
	}
	if err != nil {
		return err
	}
	_, err = s.col(colTasks).UpdateMany(ctx, bson.M{taskField: id}, bson.M{"$set": bson.M{taskField: fallback.ID}})
	return err
}

func (s *Store) CreatePosition(ctx context.Context, p *models.Position) error {
	return s.insertLookup(ctx, colPositions, func(id int64) { p.ID = id }, p)
}

func (s *Store) GetPosition(ctx context.Context, id int64) (*models.Position, error) {
	var p models.Position
	if err := s.getLookup(ctx, colPositions, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPositions(ctx context.Context) ([]models.Position, error) {
	return findAll[models.Position](ctx, s.col(colPositions), bson.M{}, bson.D{{Key: "_id", Value: 1}})
}

func (s *Store) UpdatePosition(ctx context.Context, p *models.Position) error {
	return s.replaceLookup(ctx, colPositions, p.ID, p)
}

func (s *Store) DeletePosition(ctx context.Context, id int64) error {
	if _, err := s.col(colUsers).UpdateMany(ctx, bson.M{"positionId": id}, bson.M{"$unset": bson.M{"positionId": ""}}); err != nil {
		return fmt.Errorf("detach users: %w", err)
	}
	return deletedOrNotFound(s.col(colPositions).DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *Store) CreateStatus(ctx context.Context, st *models.Status) error {
	return s.insertLookup(ctx, colStatuses, func(id int64) { st.ID = id }, st)
}

func (s *Store) GetStatus(ctx context.Context, id int64) (*models.Status, error) {
	var st models.Status
	if err := s.getLookup(ctx, colStatuses, id, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) ListStatuses(ctx context.Context) ([]models.Status, error) {
	return findAll[models.Status](ctx, s.col(colStatuses), bson.M{}, bson.D{{Key: "_id", Value: 1}})
}

func (s *Store) UpdateStatus(ctx context.Context, st *models.Status) error {
	return s.replaceLookup(ctx, colStatuses, st.ID, st)
}

func (s *Store) DeleteStatus(ctx context.Context, id int64) error {
	if err := s.reassignTasks(ctx, colStatuses, "statusId", id); err != nil {
		return err
	}
	return deletedOrNotFound(s.col(colStatuses).DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *Store) CreatePriority(ctx context.Context, p *models.Priority) error {
	return s.insertLookup(ctx, colPriorities, func(id int64) { p.ID = id }, p)
}

func (s *Store) GetPriority(ctx context.Context, id int64) (*models.Priority, error) {
	var p models.Priority
	if err := s.getLookup(ctx, colPriorities, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPriorities(ctx context.Context) ([]models.Priority, error) {
	return findAll[models.Priority](ctx, s.col(colPriorities), bson.M{}, bson.D{{Key: "_id", Value: 1}})
}

func (s *Store) UpdatePriority(ctx context.Context, p *models.Priority) error {
	return s.replaceLookup(ctx, colPriorities, p.ID, p)
}

func (s *Store) DeletePriority(ctx context.Context, id int64) error {
	if err := s.reassignTasks(ctx, colPriorities, "priorityId", id); err != nil {
		return err
	}
	return deletedOrNotFound(s.col(colPriorities).DeleteOne(ctx, bson.M{"_id": id}))
}
