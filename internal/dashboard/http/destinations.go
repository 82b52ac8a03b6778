package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dewataksu/dashboard/internal/dashboard/domain"
	"github.com/dewataksu/dashboard/internal/dashboard/service"
	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/httpx"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DestinationRow is one line of the destinations table.
type DestinationRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	Price     string    `json:"price"`
	Likes     int       `json:"likes"`
	Bookmarks int       `json:"bookmarks"`
	CreatedAt time.Time `json:"created_at"`
}

// DestinationListResponse is ListResponse[DestinationRow], named for the docs.
type DestinationListResponse = ListResponse[DestinationRow]

type DestinationsHandler struct {
	NotificationService *service.NotificationService
}

// List handles GET /dashboard/destinations
//
//	@Summary		List destinations
//	@Tags			Destinations
//	@Produce		json
//	@Param			page		query		int		false	"Page (default 1)"
//	@Param			pageSize	query		int		false	"Page size: 7, 14, 30, 50 or 100 (default 7)"
//	@Param			title		query		string	false	"Filter by title"
//	@Success		200			{object}	DestinationListResponse
//	@Failure		502			{object}	httpx.ErrorBody
//	@Router			/dashboard/destinations [get].
func (h *DestinationsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, size := domain.ParsePageParams(query)

	res, err := clientFrom(r).ListDestinations(r.Context(), dashsdk.ListParams{
		Page:  page,
		Size:  size,
		Title: query.Get("title"),
	})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	rows := make([]DestinationRow, 0, len(res.Data))
	for _, d := range res.Data {
		rows = append(rows, destinationRow(d))
	}

	view := listResponse(res, page, size, query)
	httpx.WriteJSON(w, http.StatusOK, DestinationListResponse{
		Data:       rows,
		Pagination: view.Pagination,
	})
}

// Get handles GET /dashboard/destinations/{slug}
//
//	@Summary		Get a destination
//	@Tags			Destinations
//	@Produce		json
//	@Param			slug	path		string	true	"Destination slug"
//	@Success		200		{object}	dashsdk.Destination
//	@Failure		404		{object}	httpx.ErrorBody
//	@Router			/dashboard/destinations/{slug} [get].
func (h *DestinationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

// Create handles POST /dashboard/destinations
//
//	@Summary		Create a destination
//	@Description	Numbers are sent as typed. An empty or zero price becomes free; empty coordinates become null.
//	@Tags			Destinations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dashsdk.DestinationInput	true	"Destination"
//	@Success		201		{object}	WriteResponse
//	@Failure		422		{object}	httpx.ErrorBody	"field -> message"
//	@Router			/dashboard/destinations [post].
func (h *DestinationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in dashsdk.DestinationInput
	if !decodeBody(w, r, &in) {
		return
	}
	if errs := in.Validate(); errs != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, errs)
		return
	}

	var created *dashsdk.Destination
	n, err := track(r, h.NotificationService, domain.KindCreate, "destination", in.Title,
		func(ctx context.Context) (err error) {
			created, err = clientFrom(r).CreateDestination(ctx, in)
			return err
		})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	resp := WriteResponse{
		Message:      fmt.Sprintf("%s was successfully created.", in.Title),
		Notification: n,
	}
	if created != nil {
		resp.ID, resp.Slug = created.ID, created.Slug
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// Update handles PATCH /dashboard/destinations/{slug}
//
//	@Summary		Update a destination
//	@Description	Fields equal to the stored destination are not sent to the backend.
//	@Tags			Destinations
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string						true	"Destination slug"
//	@Param			request	body		dashsdk.DestinationPatch	true	"Changed fields"
//	@Success		200		{object}	WriteResponse
//	@Failure		404		{object}	httpx.ErrorBody
//	@Failure		422		{object}	httpx.ErrorBody	"field -> message"
//	@Router			/dashboard/destinations/{slug} [patch].
func (h *DestinationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch dashsdk.DestinationPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if errs := patch.Validate(); errs != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, errs)
		return
	}

	old, ok := h.load(w, r)
	if !ok {
		return
	}

	label := old.Title
	if patch.Title != nil {
		label = *patch.Title
	}

	n, err := track(r, h.NotificationService, domain.KindUpdate, "destination", label,
		func(ctx context.Context) error {
			return clientFrom(r).UpdateDestination(ctx, old.ID, patch, old)
		})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, WriteResponse{
		ID:           old.ID,
		Slug:         old.Slug,
		Message:      fmt.Sprintf("%s was successfully updated.", label),
		Notification: n,
	})
}

// Delete handles DELETE /dashboard/destinations/{slug}
//
//	@Summary		Delete a destination
//	@Description	Without confirm=true nothing is deleted and 428 explains what would be.
//	@Tags			Destinations
//	@Produce		json
//	@Param			slug	path		string	true	"Destination slug"
//	@Param			confirm	query		bool	false	"Confirm the deletion"
//	@Success		200		{object}	WriteResponse
//	@Failure		404		{object}	httpx.ErrorBody
//	@Failure		428		{object}	ConfirmResponse
//	@Router			/dashboard/destinations/{slug} [delete].
func (h *DestinationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, r)
	if !ok {
		return
	}
	if !confirmed(w, r, "destination", d.Title) {
		return
	}

	n, err := track(r, h.NotificationService, domain.KindDelete, "destination", d.Title,
		func(ctx context.Context) error {
			_, err := clientFrom(r).DeleteDestination(ctx, d.ID)
			return err
		})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, WriteResponse{
		ID:           d.ID,
		Slug:         d.Slug,
		Message:      deletedMessage(d.Title),
		Notification: n,
	})
}

func (h *DestinationsHandler) load(w http.ResponseWriter, r *http.Request) (*dashsdk.Destination, bool) {
	d, err := clientFrom(r).GetDestination(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeSDKError(w, r, err)
		return nil, false
	}
	if d == nil {
		httpx.WriteError(w, http.StatusNotFound, "destination not found")
		return nil, false
	}
	return d, true
}

func destinationRow(d dashsdk.Destination) DestinationRow {
	row := DestinationRow{
		ID:        d.ID,
		Title:     d.Title,
		Slug:      d.Slug,
		Price:     formatPrice(d.Price),
		Likes:     d.Count.Likes,
		Bookmarks: d.Count.Bookmarks,
		CreatedAt: d.CreatedAt,
	}
	if d.Category != nil {
		row.Category = d.Category.Name
	}
	return row
}

var pricePrinter = message.NewPrinter(language.English)

// formatPrice renders a price the way the table shows it: "Free" for zero,
// otherwise a dollar amount with thousands separators.
func formatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	if *price == 0 {
		return "Free"
	}
	return "$" + pricePrinter.Sprint(number.Decimal(*price, number.MaxFractionDigits(3)))
}
