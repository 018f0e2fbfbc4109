package models

import (
	"fmt"
	"time"
)

type Comment struct {
	ID         int64     `json:"id" bson:"_id"`
	TaskID     int64     `json:"task" bson:"taskId"`
	AuthorID   int64     `json:"author" bson:"authorId"`
	Text       string    `json:"text" bson:"text"`
	Attachment string    `json:"attachment,omitempty" bson:"attachment,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updatedAt"`
}

func (c *Comment) String() string {
	return fmt.Sprintf("comment #%d on task %d", c.ID, c.TaskID)
}

// CommentFilter narrows ListComments. TaskIssueID is resolved to a task first.
type CommentFilter struct {
	TaskID      *int64
	TaskIssueID string
}
