package store

import (
	"context"
	"errors"
	"time"

	"github.com/dewataksu/dashboard/internal/dashboard/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. The dashboard owns no domain data
// of its own (the backend does); it only keeps the write notifications it
// shows to admins.
type Store interface {
	Notifications() Notifications

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing if it returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Notifications interface {
	// CreateNotification inserts n (id is provided by the caller via ULID).
	CreateNotification(ctx context.Context, n domain.Notification) error

	// GetNotification returns ErrNotFound if no notification has id.
	GetNotification(ctx context.Context, id string) (domain.Notification, error)

	// ListNotifications returns a user's notifications newest first.
	ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error)

	// SettleNotification moves a pending notification to its final state.
	// Returns ErrNotFound if it does not exist or was already settled.
	SettleNotification(
		ctx context.Context,
		id string,
		state domain.NotificationState,
		message string,
		at time.Time,
	) error

	// FailPendingNotificationsBefore settles notifications still pending
	// since before cutoff as failures, for writes whose outcome was lost.
	FailPendingNotificationsBefore(ctx context.Context, cutoff time.Time, message string, at time.Time) (int64, error)

	// DeleteNotificationsBefore removes settled notifications last updated
	// before cutoff and returns how many were removed.
	DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
