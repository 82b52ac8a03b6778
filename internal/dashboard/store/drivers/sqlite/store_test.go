package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dewataksu/dashboard/internal/dashboard/domain"
	"github.com/dewataksu/dashboard/internal/dashboard/store"
	"github.com/dewataksu/dashboard/internal/dashboard/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	// Applying twice is a no-op.
	require.NoError(t, s.ApplyMigrations())
	return s
}

func pending(id, user string, at time.Time) domain.Notification {
	return domain.Notification{
		ID:        id,
		UserID:    user,
		Kind:      domain.KindCreate,
		Resource:  "category",
		Label:     "Creating category Beach",
		State:     domain.NotificationPending,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestNotificationsLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Notifications()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.CreateNotification(ctx, pending("n1", "u1", now)))
	require.ErrorIs(t, repo.CreateNotification(ctx, pending("n1", "u1", now)), store.ErrAlreadyExists)

	got, err := repo.GetNotification(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, domain.NotificationPending, got.State)
	require.Equal(t, "Creating category Beach", got.Label)
	require.True(t, got.CreatedAt.Equal(now))
	require.Empty(t, got.Message)

	later := now.Add(time.Second)
	require.NoError(t, repo.SettleNotification(ctx, "n1", domain.NotificationFailure, "name taken", later))

	got, err = repo.GetNotification(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, domain.NotificationFailure, got.State)
	require.Equal(t, "name taken", got.Message)
	require.True(t, got.UpdatedAt.Equal(later))
	require.True(t, got.Settled())

	// A settled notification cannot change again.
	err = repo.SettleNotification(ctx, "n1", domain.NotificationSuccess, "", later)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.GetNotification(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListNotifications(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Notifications()
	now := time.Now().UTC()

	require.NoError(t, repo.CreateNotification(ctx, pending("a", "u1", now.Add(-2*time.Minute))))
	require.NoError(t, repo.CreateNotification(ctx, pending("b", "u1", now.Add(-time.Minute))))
	require.NoError(t, repo.CreateNotification(ctx, pending("c", "u2", now)))

	list, err := repo.ListNotifications(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "b", list[0].ID)
	require.Equal(t, "a", list[1].ID)

	list, err = repo.ListNotifications(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteNotificationsBefore(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Notifications()
	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)

	require.NoError(t, repo.CreateNotification(ctx, pending("old-settled", "u1", old)))
	require.NoError(t, repo.SettleNotification(ctx, "old-settled", domain.NotificationSuccess, "", old))
	require.NoError(t, repo.CreateNotification(ctx, pending("old-pending", "u1", old)))
	require.NoError(t, repo.CreateNotification(ctx, pending("fresh", "u1", now)))
	require.NoError(t, repo.SettleNotification(ctx, "fresh", domain.NotificationSuccess, "", now))

	n, err := repo.DeleteNotificationsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = repo.GetNotification(ctx, "old-settled")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.GetNotification(ctx, "old-pending")
	require.NoError(t, err)

	n, err = repo.FailPendingNotificationsBefore(ctx, now.Add(-24*time.Hour), "abandoned", now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := repo.GetNotification(ctx, "old-pending")
	require.NoError(t, err)
	require.Equal(t, domain.NotificationFailure, got.State)
	require.Equal(t, "abandoned", got.Message)
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Notifications().CreateNotification(ctx, pending("rolled-back", "u1", now)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Notifications().GetNotification(ctx, "rolled-back")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Notifications().CreateNotification(ctx, pending("kept", "u1", now))
	})
	require.NoError(t, err)

	_, err = s.Notifications().GetNotification(ctx, "kept")
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))
}
