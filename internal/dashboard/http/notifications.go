package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dewataksu/dashboard/internal/dashboard/domain"
	"github.com/dewataksu/dashboard/internal/dashboard/service"
	"github.com/dewataksu/dashboard/pkg/httpx"
	"github.com/dewataksu/dashboard/pkg/slogx"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// WriteResponse is returned by every mutating dashboard route.
type WriteResponse struct {
	ID           string               `json:"id,omitempty"`
	Slug         string               `json:"slug,omitempty"`
	Message      string               `json:"message,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

// NotificationListResponse lists the caller's latest write notifications.
type NotificationListResponse struct {
	Data []domain.Notification `json:"data"`
}

type NotificationsHandler struct {
	NotificationService *service.NotificationService
}

// List handles GET /dashboard/notifications
//
//	@Summary		List write notifications
//	@Description	Latest notifications of the signed-in admin, newest first.
//	@Tags			Notifications
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum entries (default 20, max 100)"
//	@Success		200		{object}	NotificationListResponse
//	@Failure		500		{object}	httpx.ErrorBody
//	@Router			/dashboard/notifications [get].
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultNotificationLimit
	}
	limit = min(limit, maxNotificationLimit)

	list, err := h.NotificationService.List(ctx, userID, limit)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list notifications", "error", err)
		writeInternalError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, NotificationListResponse{Data: list})
}

// Get handles GET /dashboard/notifications/{id}
//
//	@Summary		Get a write notification
//	@Tags			Notifications
//	@Produce		json
//	@Param			id	path		string	true	"Notification ID"
//	@Success		200	{object}	domain.Notification
//	@Failure		404	{object}	httpx.ErrorBody
//	@Router			/dashboard/notifications/{id} [get].
func (h *NotificationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	n, err := h.NotificationService.Get(ctx, userID, r.PathValue("id"))
	if errors.Is(err, service.ErrNotificationNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "notification not found")
		return
	}
	if err != nil {
		slogx.FromContext(ctx).Error("failed to get notification", "error", err)
		writeInternalError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, n)
}

// track runs fn as a write of the signed-in admin and returns the settled
// notification, or nil when it could not be recorded.
func track(
	r *http.Request,
	svc *service.NotificationService,
	kind domain.NotificationKind,
	resource, label string,
	fn func(ctx context.Context) error,
) (*domain.Notification, error) {
	userID, _ := httpx.UserIDFromContext(r.Context())

	n, err := svc.Track(r.Context(), service.Write{
		UserID:   userID,
		Kind:     kind,
		Resource: resource,
		Label:    label,
	}, fn)
	if n.ID == "" {
		return nil, err
	}
	return &n, err
}
