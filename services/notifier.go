package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"task-tracker/backend/logging"
	"task-tracker/backend/models"
)

// Notifier tells users about tasks assigned to them. Delivery problems are
// logged and never surface to the caller.
type Notifier interface {
	TaskAssigned(ctx context.Context, task *models.Task, assignee *models.User)
}

type NopNotifier struct{}

func (NopNotifier) TaskAssigned(context.Context, *models.Task, *models.User) {}

const notifyMaxRetries = 2

// HTTPNotifier posts notifications to an external notifications service
// through a circuit breaker. A notification, retries included, never takes
// longer than the configured timeout.
type HTTPNotifier struct {
	url     string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPNotifier(url string, timeout time.Duration) *HTTPNotifier {
	return &HTTPNotifier{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "notifications-cb",
			MaxRequests: 1,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' state changed from %s to %s", name, from.String(), to.String())
			},
		}),
	}
}

type notificationRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

func (n *HTTPNotifier) TaskAssigned(ctx context.Context, task *models.Task, assignee *models.User) {
	payload := notificationRequest{
		UserID:   strconv.FormatInt(assignee.ID, 10),
		Username: assignee.Username,
		Message:  fmt.Sprintf("You have been assigned to task %s: %s", task.IssueID, task.Title),
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	_, err := n.breaker.Execute(func() (interface{}, error) {
		eb := backoff.NewExponentialBackOff()
		eb.MaxElapsedTime = n.timeout
		bo := backoff.WithContext(backoff.WithMaxRetries(eb, notifyMaxRetries), ctx)
		return nil, backoff.Retry(func() error { return n.post(ctx, payload) }, bo)
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_FAILED, Description: Failed to notify user %d about %s: %v", assignee.ID, task.IssueID, err)
		return
	}
	logging.Logger.Infof("Event ID: NOTIFICATION_SENT, Description: User %d notified about %s", assignee.ID, task.IssueID)
}

func (n *HTTPNotifier) post(ctx context.Context, payload notificationRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return backoff.Permanent(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("notifications service returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("notifications service rejected request: %d", resp.StatusCode))
	}
	return nil
}
