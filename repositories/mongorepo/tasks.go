package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-tracker/backend/issueid"
	"task-tracker/backend/models"
)

// issueSource reads existing issue ids of a project from the tasks
// collection.
type issueSource struct {
	tasks *mongo.Collection
}

var _ issueid.Source = issueSource{}

func (s issueSource) LatestIssueID(ctx context.Context, projectID int64) (string, bool, error) {
	var latest struct {
		IssueID string `bson:"issueId"`
	}
	err := s.tasks.FindOne(ctx,
		bson.M{"projectId": projectID},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.M{"issueId": 1}),
	).Decode(&latest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return latest.IssueID, true, nil
}

func (s issueSource) CountTasks(ctx context.Context, projectID int64) (int64, error) {
	return s.tasks.CountDocuments(ctx, bson.M{"projectId": projectID})
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	project, err := s.GetProject(ctx, t.ProjectID)
	if err != nil {
		return fmt.Errorf("load project %d: %w", t.ProjectID, err)
	}
	if err := issueid.Assign(ctx, issueSource{tasks: s.col(colTasks)}, t, project.Code); err != nil {
		return err
	}
	id, err := s.nextID(ctx, colTasks)
	if err != nil {
		return err
	}
	t.ID = id
	if _, err := s.col(colTasks).InsertOne(ctx, t); err != nil {
		return fmt.Errorf("create task %s: %w", t.IssueID, classify(err))
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	var t models.Task
	if err := s.col(colTasks).FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

func (s *Store) GetTaskByIssueID(ctx context.Context, issueID string) (*models.Task, error) {
	var t models.Task
	if err := s.col(colTasks).FindOne(ctx, bson.M{"issueId": issueID}).Decode(&t); err != nil {
		return nil, classify(err)
	}
	return &t, nil
}

func taskFilter(f models.TaskFilter) bson.M {
	filter := bson.M{}
	field := func(name string) bson.M {
		m, ok := filter[name].(bson.M)
		if !ok {
			m = bson.M{}
			filter[name] = m
		}
		return m
	}
	if f.ProjectID != nil {
		field("projectId")["$eq"] = *f.ProjectID
	}
	if f.NotProjectID != nil {
		field("projectId")["$ne"] = *f.NotProjectID
	}
	if f.StatusID != nil {
		field("statusId")["$eq"] = *f.StatusID
	}
	if f.NotStatusID != nil {
		field("statusId")["$ne"] = *f.NotStatusID
	}
	if f.AssigneeID != nil {
		field("assigneeId")["$eq"] = *f.AssigneeID
	}
	if f.NotAssigneeID != nil {
		field("assigneeId")["$ne"] = *f.NotAssigneeID
	}
	if f.Unassigned {
		field("assigneeId")["$exists"] = false
	}
	return filter
}

func (s *Store) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	return findAll[models.Task](ctx, s.col(colTasks), taskFilter(f),
		bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
}

// UpdateTask sets every mutable field; issueId, creatorId and createdAt are
// left as stored.
func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	set := bson.M{
		"title":       t.Title,
		"description": t.Description,
		"projectId":   t.ProjectID,
		"statusId":    t.StatusID,
		"priorityId":  t.PriorityID,
		"updatedAt":   t.UpdatedAt,
	}
	unset := bson.M{}
	if t.AssigneeID != nil {
		set["assigneeId"] = *t.AssigneeID
	} else {
		unset["assigneeId"] = ""
	}
	if t.DueDate != nil {
		set["dueDate"] = *t.DueDate
	} else {
		unset["dueDate"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.col(colTasks).UpdateOne(ctx, bson.M{"_id": t.ID}, update)
	return matchedOrNotFound(res, err)
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	if _, err := s.col(colComments).DeleteMany(ctx, bson.M{"taskId": id}); err != nil {
		return fmt.Errorf("delete task comments: %w", err)
	}
	return deletedOrNotFound(s.col(colTasks).DeleteOne(ctx, bson.M{"_id": id}))
}

// taskIDs returns the ids of tasks matching filter, never nil.
func (s *Store) taskIDs(ctx context.Context, filter bson.M) ([]int64, error) {
	cursor, err := s.col(colTasks).Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find task ids: %w", err)
	}
	defer cursor.Close(ctx)

	ids := []int64{}
	for cursor.Next(ctx) {
		var doc struct {
			ID int64 `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}
