package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"task-tracker/backend/models"
)

var (
	ErrForbidden       = errors.New("you do not have permission to perform this action")
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
)

// now is the write-path clock. Tests replace it.
var now = func() time.Time { return time.Now().UTC() }

// ValidationError collects per-field messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns e when any field failed, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

const (
	msgRequired   = "This field is required."
	msgBlank      = "This field may not be blank."
	msgNotPresent = "Invalid pk \"%d\" - object does not exist."
)

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// checkText validates a required, length bounded string.
func checkText(v *ValidationError, field, value string, max int) {
	switch {
	case strings.TrimSpace(value) == "":
		v.Add(field, msgBlank)
	case len([]rune(value)) > max:
		v.Add(field, msgMaxLength(max))
	}
}

// Optional distinguishes an absent JSON field from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Some is a set, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func requireActor(actor *models.User) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	return nil
}

func requireAdmin(actor *models.User) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// isMember reports whether actor belongs to project.
func isMember(actor *models.User, project *models.Project) bool {
	return actor != nil && project != nil && project.HasMember(actor.ID)
}
