package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dewataksu/dashboard/internal/dashboard/domain"
	"github.com/dewataksu/dashboard/internal/dashboard/store"
	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/idx"
	"github.com/dewataksu/dashboard/pkg/slogx"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService records the pending, success and failure states of
// the writes admins make through the dashboard.
type NotificationService struct {
	Store store.Store

	// Now defaults to time.Now.
	Now func() time.Time
}

// Write describes a mutating call to track.
type Write struct {
	UserID   string
	Kind     domain.NotificationKind
	Resource string
	Label    string
}

// Track records w as pending, runs fn, then settles the notification with
// fn's outcome. fn's error is returned unchanged. Failing to record the
// notification is logged but never prevents the write.
func (s *NotificationService) Track(
	ctx context.Context,
	w Write,
	fn func(ctx context.Context) error,
) (domain.Notification, error) {
	log := slogx.FromContext(ctx)

	n, err := s.begin(ctx, w)
	if err != nil {
		log.Error("failed to record notification",
			slog.String("resource", w.Resource),
			slog.Any("error", err),
		)
		return domain.Notification{}, fn(ctx)
	}

	writeErr := fn(ctx)

	n.State, n.Message = domain.NotificationSuccess, ""
	if writeErr != nil {
		n.State, n.Message = domain.NotificationFailure, failureMessage(writeErr)
	}
	n.UpdatedAt = s.now()

	// Settle even if the request was cancelled mid-write.
	settleCtx := context.WithoutCancel(ctx)
	if err := s.Store.Notifications().SettleNotification(settleCtx, n.ID, n.State, n.Message, n.UpdatedAt); err != nil {
		log.Error("failed to settle notification",
			slog.String("notification_id", n.ID),
			slog.Any("error", err),
		)
	}

	return n, writeErr
}

func (s *NotificationService) begin(ctx context.Context, w Write) (domain.Notification, error) {
	now := s.now()
	n := domain.Notification{
		ID:        idx.NewAt(now).String(),
		UserID:    w.UserID,
		Kind:      w.Kind,
		Resource:  w.Resource,
		Label:     w.Label,
		State:     domain.NotificationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Notifications().CreateNotification(ctx, n); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

// List returns the user's latest notifications.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	list, err := s.Store.Notifications().ListNotifications(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Notification{}
	}
	return list, nil
}

// Get returns one of the user's notifications. Another user's notification
// is reported as not found.
func (s *NotificationService) Get(ctx context.Context, userID, id string) (domain.Notification, error) {
	n, err := s.Store.Notifications().GetNotification(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && n.UserID != userID) {
		return domain.Notification{}, ErrNotificationNotFound
	}
	if err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

func (s *NotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// failureMessage is what the failure toast shows: the backend's own message
// when there is one.
func failureMessage(err error) string {
	var apiErr *dashsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
