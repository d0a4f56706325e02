// Package agenda sends reminders for users' timed agenda items.
//
// Every run picks up items whose target time fell within the last minute
// and have not been notified yet, pushes one message per item and marks
// the whole batch notified regardless of individual delivery outcomes.
package agenda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ramadhantime/notifier/internal/push"
)

// Lookback is how far behind "now" a target time may be and still fire.
const Lookback = time.Minute

// ErrInvalidItem is returned when an item fails validation on Add.
var ErrInvalidItem = errors.New("invalid agenda item")

// Item is one timed agenda entry.
type Item struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TaskName   string    `json:"task_name"`
	TargetTime time.Time `json:"target_time"`
	IsNotified bool      `json:"is_notified"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists agenda items.
type Store interface {
	DueAgendas(ctx context.Context, from, to time.Time) ([]Item, error)
	MarkAgendasNotified(ctx context.Context, ids []string) error
	AddAgenda(ctx context.Context, item Item) error
	UserAgendas(ctx context.Context, userID string) ([]Item, error)
}

// Pusher delivers one notification.
type Pusher interface {
	Send(ctx context.Context, n push.Notification) error
}

// Result summarises one run.
type Result struct {
	Due     int
	Sent    int
	Message string
}

// Service runs the agenda reminder job.
type Service struct {
	store  Store
	pusher Pusher // nil when push is not configured
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates the agenda job. pusher may be nil.
func NewService(store Store, pusher Pusher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, pusher: pusher, now: time.Now, logger: logger}
}

// Run sends reminders for items due in (now-Lookback, now].
func (s *Service) Run(ctx context.Context) (*Result, error) {
	now := s.now().UTC()
	items, err := s.store.DueAgendas(ctx, now.Add(-Lookback), now)
	if err != nil {
		return nil, fmt.Errorf("query due agendas: %w", err)
	}
	if len(items) == 0 {
		return &Result{Message: "No pending notifications"}, nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	if s.pusher == nil {
		s.logger.Warn("OneSignal not configured, marking agendas without sending", "count", len(items))
		if err := s.store.MarkAgendasNotified(ctx, ids); err != nil {
			return nil, fmt.Errorf("mark agendas notified: %w", err)
		}
		return &Result{
			Due:     len(items),
			Sent:    len(items),
			Message: "Marked as notified (OneSignal not configured)",
		}, nil
	}

	sent := 0
	for _, it := range items {
		err := s.pusher.Send(ctx, push.Notification{
			UserTag: it.UserID,
			Heading: "Ramadhan Time",
			Content: "⏰ " + it.TaskName,
			URL:     "/dashboard",
		})
		if err != nil {
			s.logger.Warn("Agenda push failed", "agenda_id", it.ID, "user_id", it.UserID, "error", err)
			continue
		}
		sent++
	}

	if err := s.store.MarkAgendasNotified(ctx, ids); err != nil {
		return nil, fmt.Errorf("mark agendas notified: %w", err)
	}

	s.logger.Info("Agenda run complete", "due", len(items), "sent", sent)
	return &Result{
		Due:     len(items),
		Sent:    sent,
		Message: fmt.Sprintf("Sent %d/%d notifications", sent, len(items)),
	}, nil
}

// Add validates and stores a new item, assigning its ID.
func (s *Service) Add(ctx context.Context, userID, task string, target time.Time) (Item, error) {
	if userID == "" || task == "" {
		return Item{}, fmt.Errorf("%w: user and task are required", ErrInvalidItem)
	}
	if target.IsZero() {
		return Item{}, fmt.Errorf("%w: target time is required", ErrInvalidItem)
	}
	it := Item{
		ID:         uuid.NewString(),
		UserID:     userID,
		TaskName:   task,
		TargetTime: target.UTC(),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.AddAgenda(ctx, it); err != nil {
		return Item{}, fmt.Errorf("add agenda: %w", err)
	}
	return it, nil
}

// List returns a user's items ordered by target time.
func (s *Service) List(ctx context.Context, userID string) ([]Item, error) {
	items, err := s.store.UserAgendas(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list agendas: %w", err)
	}
	return items, nil
}
