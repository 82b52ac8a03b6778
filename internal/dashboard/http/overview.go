package http

import (
	"net/http"

	"github.com/dewataksu/dashboard/internal/dashboard/domain"
	"github.com/dewataksu/dashboard/internal/dashboard/service"
	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/httpx"
	"github.com/dewataksu/dashboard/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

const overviewRecent = 5

// OverviewResponse is the dashboard landing page.
type OverviewResponse struct {
	User         *dashsdk.User         `json:"user"`
	Categories   int                   `json:"categories"`
	Destinations int                   `json:"destinations"`
	Recent       []domain.Notification `json:"recent"`
}

type OverviewHandler struct {
	NotificationService *service.NotificationService
}

// ServeHTTP handles GET /dashboard
//
//	@Summary		Dashboard overview
//	@Description	The signed-in admin, listing totals and the latest write notifications.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	OverviewResponse
//	@Failure		401	{object}	httpx.ErrorBody	"session is gone"
//	@Router			/dashboard [get].
func (h *OverviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(r)

	session := dashsdk.NewSession(sess.client, nil)
	if session.Init(ctx) != dashsdk.StateAuthenticated {
		sess.Forget()
		httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorBody{
			Errors:   "unauthorized",
			Redirect: LoginPath,
		})
		return
	}

	resp := OverviewResponse{User: session.User()}
	userID, _ := httpx.UserIDFromContext(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := sess.client.ListCategories(gctx, dashsdk.ListParams{Page: 1, Size: 1})
		if err != nil {
			return err
		}
		resp.Categories = page.Pagination.TotalItems
		return nil
	})
	g.Go(func() error {
		page, err := sess.client.ListDestinations(gctx, dashsdk.ListParams{Page: 1, Size: 1})
		if err != nil {
			return err
		}
		resp.Destinations = page.Pagination.TotalItems
		return nil
	})
	g.Go(func() error {
		recent, err := h.NotificationService.List(gctx, userID, overviewRecent)
		if err != nil {
			slogx.FromContext(ctx).Error("failed to list notifications", "error", err)
			recent = []domain.Notification{}
		}
		resp.Recent = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		writeSDKError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
