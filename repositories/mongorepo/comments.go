package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
)

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	id, err := s.nextID(ctx, colComments)
	if err != nil {
		return err
	}
	c.ID = id
	if _, err := s.col(colComments).InsertOne(ctx, c); err != nil {
		return fmt.Errorf("create comment: %w", classify(err))
	}
	return nil
}

func (s *Store) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	if err := s.col(colComments).FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, f models.CommentFilter) ([]models.Comment, error) {
	filter := bson.M{}
	if f.TaskID != nil {
		filter["taskId"] = *f.TaskID
	}
	if f.TaskIssueID != "" {
		t, err := s.GetTaskByIssueID(ctx, f.TaskIssueID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return []models.Comment{}, nil
		case err != nil:
			return nil, err
		}
		if f.TaskID != nil && *f.TaskID != t.ID {
			return []models.Comment{}, nil
		}
		filter["taskId"] = t.ID
	}
	return findAll[models.Comment](ctx, s.col(colComments), filter,
		bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (s *Store) UpdateComment(ctx context.Context, c *models.Comment) error {
	set := bson.M{"text": c.Text, "updatedAt": c.UpdatedAt}
	update := bson.M{"$set": set}
	if c.Attachment != "" {
		set["attachment"] = c.Attachment
	} else {
		update["$unset"] = bson.M{"attachment": ""}
	}
	res, err := s.col(colComments).UpdateOne(ctx, bson.M{"_id": c.ID}, update)
	return matchedOrNotFound(res, err)
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	return deletedOrNotFound(s.col(colComments).DeleteOne(ctx, bson.M{"_id": id}))
}

// RevokeToken blacklists a refresh token id. A duplicate _id fails with
// ErrConflict. The TTL index on expiresAt removes entries once they expire.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.col(colRevoked).InsertOne(ctx, bson.M{"_id": jti, "expiresAt": expiresAt.UTC()})
	if err != nil {
		return fmt.Errorf("revoke token: %w", classify(err))
	}
	return nil
}

func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.col(colRevoked).CountDocuments(ctx, bson.M{"_id": jti})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
