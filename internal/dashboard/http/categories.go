package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dewataksu/dashboard/internal/dashboard/domain"
	"github.com/dewataksu/dashboard/internal/dashboard/service"
	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/httpx"
)

// ListResponse is one page of a dashboard table.
type ListResponse[T any] struct {
	Data       []T             `json:"data"`
	Pagination domain.PageView `json:"pagination"`
}

// CategoryListResponse is ListResponse[dashsdk.Category], named for the docs.
type CategoryListResponse = ListResponse[dashsdk.Category]

// ConfirmResponse asks the UI to repeat a destructive request with
// confirm=true.
type ConfirmResponse struct {
	Errors  string `json:"errors"`
	Confirm string `json:"confirm"`
}

type CategoriesHandler struct {
	NotificationService *service.NotificationService
}

// List handles GET /dashboard/categories
//
//	@Summary		List categories
//	@Tags			Categories
//	@Produce		json
//	@Param			page		query		int		false	"Page (default 1)"
//	@Param			pageSize	query		int		false	"Page size: 7, 14, 30, 50 or 100 (default 7)"
//	@Param			title		query		string	false	"Filter"
//	@Success		200			{object}	CategoryListResponse
//	@Failure		502			{object}	httpx.ErrorBody
//	@Router			/dashboard/categories [get].
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, size := domain.ParsePageParams(query)

	res, err := clientFrom(r).ListCategories(r.Context(), dashsdk.ListParams{
		Page:  page,
		Size:  size,
		Title: query.Get("title"),
	})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, listResponse(res, page, size, query))
}

// Get handles GET /dashboard/categories/{id}
//
//	@Summary		Get a category
//	@Tags			Categories
//	@Produce		json
//	@Param			id	path		string	true	"Category ID"
//	@Success		200	{object}	dashsdk.Category
//	@Failure		404	{object}	httpx.ErrorBody
//	@Router			/dashboard/categories/{id} [get].
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, category)
}

// Create handles POST /dashboard/categories
//
//	@Summary		Create a category
//	@Tags			Categories
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dashsdk.CategoryInput	true	"Category"
//	@Success		201		{object}	WriteResponse
//	@Failure		422		{object}	httpx.ErrorBody	"field -> message"
//	@Router			/dashboard/categories [post].
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in dashsdk.CategoryInput
	if !decodeBody(w, r, &in) {
		return
	}
	if errs := in.Validate(); errs != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, errs)
		return
	}

	var id string
	n, err := track(r, h.NotificationService, domain.KindCreate, "category", in.Name,
		func(ctx context.Context) (err error) {
			id, err = clientFrom(r).CreateCategory(ctx, in)
			return err
		})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, WriteResponse{
		ID:           id,
		Message:      fmt.Sprintf("%s was successfully created.", in.Name),
		Notification: n,
	})
}

// Update handles PATCH /dashboard/categories/{id}
//
//	@Summary		Update a category
//	@Description	Only the fields present in the body are changed; description may be null.
//	@Tags			Categories
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Category ID"
//	@Param			request	body		dashsdk.CategoryPatch	true	"Changed fields"
//	@Success		200		{object}	WriteResponse
//	@Failure		422		{object}	httpx.ErrorBody	"field -> message"
//	@Router			/dashboard/categories/{id} [patch].
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch dashsdk.CategoryPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if errs := patch.Validate(); errs != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, errs)
		return
	}

	label := id
	if patch.Name != nil {
		label = *patch.Name
	}

	n, err := track(r, h.NotificationService, domain.KindUpdate, "category", label,
		func(ctx context.Context) error {
			return clientFrom(r).UpdateCategory(ctx, id, patch)
		})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, WriteResponse{
		ID:           id,
		Message:      fmt.Sprintf("%s was successfully updated.", label),
		Notification: n,
	})
}

// Delete handles DELETE /dashboard/categories/{id}
//
//	@Summary		Delete a category
//	@Description	Without confirm=true nothing is deleted and 428 explains what would be.
//	@Tags			Categories
//	@Produce		json
//	@Param			id		path		string	true	"Category ID"
//	@Param			confirm	query		bool	false	"Confirm the deletion"
//	@Success		200		{object}	WriteResponse
//	@Failure		404		{object}	httpx.ErrorBody
//	@Failure		428		{object}	ConfirmResponse
//	@Router			/dashboard/categories/{id} [delete].
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	category, ok := h.load(w, r)
	if !ok {
		return
	}
	if !confirmed(w, r, "category", category.Name) {
		return
	}

	n, err := track(r, h.NotificationService, domain.KindDelete, "category", category.Name,
		func(ctx context.Context) error {
			_, err := clientFrom(r).DeleteCategory(ctx, category.ID)
			return err
		})
	if err != nil {
		writeSDKError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, WriteResponse{
		ID:           category.ID,
		Message:      deletedMessage(category.Name),
		Notification: n,
	})
}

func (h *CategoriesHandler) load(w http.ResponseWriter, r *http.Request) (*dashsdk.Category, bool) {
	category, err := clientFrom(r).GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeSDKError(w, r, err)
		return nil, false
	}
	if category == nil {
		httpx.WriteError(w, http.StatusNotFound, "category not found")
		return nil, false
	}
	return category, true
}

func listResponse[T any](res *dashsdk.Page[T], page, size int, query url.Values) ListResponse[T] {
	current := res.Pagination.CurrentPage
	if current <= 0 {
		current = page
	}

	data := res.Data
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{
		Data:       data,
		Pagination: domain.NewPageView(current, res.Pagination.TotalPages, res.Pagination.TotalItems, size, query),
	}
}

// confirmed answers 428 unless the request carries confirm=true.
func confirmed(w http.ResponseWriter, r *http.Request, resource, title string) bool {
	if r.URL.Query().Get("confirm") == "true" {
		return true
	}
	httpx.WriteJSON(w, http.StatusPreconditionRequired, ConfirmResponse{
		Errors:  fmt.Sprintf("This action cannot be undone. This will permanently delete the %s %q.", resource, title),
		Confirm: "confirm=true",
	})
	return false
}

func deletedMessage(title string) string {
	return fmt.Sprintf("%s was successfully deleted.", title)
}
