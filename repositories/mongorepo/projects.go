package mongorepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"task-tracker/backend/models"
)

// uniqueMembers drops duplicates and never returns nil so the stored array
// is always present.
func uniqueMembers(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	p.NormalizeCode()
	p.MemberIDs = uniqueMembers(p.MemberIDs)
	id, err := s.nextID(ctx, colProjects)
	if err != nil {
		return err
	}
	p.ID = id
	if _, err := s.col(colProjects).InsertOne(ctx, p); err != nil {
		return fmt.Errorf("create project: %w", classify(err))
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	if err := s.col(colProjects).FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, classify(err)
	}
	p.MemberIDs = uniqueMembers(p.MemberIDs)
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := findAll[models.Project](ctx, s.col(colProjects), bson.M{}, bson.D{{Key: "name", Value: 1}})
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].MemberIDs = uniqueMembers(projects[i].MemberIDs)
	}
	return projects, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	p.NormalizeCode()
	p.MemberIDs = uniqueMembers(p.MemberIDs)
	res, err := s.col(colProjects).UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":        p.Name,
		"code":        p.Code,
		"description": p.Description,
		"members":     p.MemberIDs,
		"updatedAt":   p.UpdatedAt,
	}})
	return matchedOrNotFound(res, err)
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	if _, err := s.GetProject(ctx, id); err != nil {
		return err
	}
	taskIDs, err := s.taskIDs(ctx, bson.M{"projectId": id})
	if err != nil {
		return err
	}
	if _, err := s.col(colComments).DeleteMany(ctx, bson.M{"taskId": bson.M{"$in": taskIDs}}); err != nil {
		return fmt.Errorf("delete project comments: %w", err)
	}
	if _, err := s.col(colTasks).DeleteMany(ctx, bson.M{"projectId": id}); err != nil {
		return fmt.Errorf("delete project tasks: %w", err)
	}
	return deletedOrNotFound(s.col(colProjects).DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *Store) IsProjectMember(ctx context.Context, projectID, userID int64) (bool, error) {
	n, err := s.col(colProjects).CountDocuments(ctx, bson.M{"_id": projectID, "members": userID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
