package models

import (
	"fmt"
	"time"
)

type Task struct {
	ID          int64      `json:"id" bson:"_id"`
	IssueID     string     `json:"issue_id" bson:"issueId"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	ProjectID   int64      `json:"project" bson:"projectId"`
	CreatorID   int64      `json:"creator" bson:"creatorId"`
	AssigneeID  *int64     `json:"assignee" bson:"assigneeId,omitempty"`
	StatusID    int64      `json:"status" bson:"statusId"`
	PriorityID  int64      `json:"priority" bson:"priorityId"`
	DueDate     *time.Time `json:"due_date" bson:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updatedAt"`
}

func (t *Task) String() string {
	return fmt.Sprintf("%s (%s)", t.Title, t.IssueID)
}

// TaskFilter narrows ListTasks. Nil fields are ignored.
type TaskFilter struct {
	ProjectID     *int64
	NotProjectID  *int64
	StatusID      *int64
	NotStatusID   *int64
	AssigneeID    *int64
	NotAssigneeID *int64
	Unassigned    bool
}
