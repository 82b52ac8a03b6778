package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dewataksu/dashboard/internal/dashboard/domain"
	"github.com/dewataksu/dashboard/internal/dashboard/store"
)

type notificationsRepo struct {
	db dbtx
}

const notificationColumns = `id, user_id, kind, resource, label, state, message, created_at, updated_at`

func (r *notificationsRepo) CreateNotification(ctx context.Context, n domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Kind), n.Resource, n.Label, string(n.State),
		mapStringNull(n.Message), n.CreatedAt.UTC(), n.UpdatedAt.UTC(),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *notificationsRepo) GetNotification(ctx context.Context, id string) (domain.Notification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)

	n, err := scanNotification(row)
	if err != nil {
		return domain.Notification{}, mapNotFound(err)
	}
	return n, nil
}

func (r *notificationsRepo) ListNotifications(
	ctx context.Context,
	userID string,
	limit int,
) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationsRepo) SettleNotification(
	ctx context.Context,
	id string,
	state domain.NotificationState,
	message string,
	at time.Time,
) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications
		 SET state = ?, message = ?, updated_at = ?
		 WHERE id = ? AND state = 'pending'`,
		string(state), mapStringNull(message), at.UTC(), id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *notificationsRepo) FailPendingNotificationsBefore(
	ctx context.Context,
	cutoff time.Time,
	message string,
	at time.Time,
) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications
		 SET state = 'failure', message = ?, updated_at = ?
		 WHERE state = 'pending' AND created_at < ?`,
		mapStringNull(message), at.UTC(), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationsRepo) DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE state != 'pending' AND updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(s scanner) (domain.Notification, error) {
	var (
		n       domain.Notification
		kind    string
		state   string
		message sql.NullString
	)
	if err := s.Scan(&n.ID, &n.UserID, &kind, &n.Resource, &n.Label, &state, &message, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return domain.Notification{}, err
	}
	n.Kind = domain.NotificationKind(kind)
	n.State = domain.NotificationState(state)
	n.Message = mapNullString(message)
	return n, nil
}
