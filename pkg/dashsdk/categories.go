package dashsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ListCategories returns a page of categories. Zero params fetch the
// backend's default listing.
func (c *SDKClient) ListCategories(ctx context.Context, params ListParams) (*CategoryPage, error) {
	path := "/categories"
	if !params.IsZero() {
		path += "?" + params.Query().Encode()
	}
	return getResult[*CategoryPage](ctx, c, path)
}

// GetCategory returns the category or nil if the backend has none by id.
func (c *SDKClient) GetCategory(ctx context.Context, id string) (*Category, error) {
	category, err := getResult[*Category](ctx, c, "/categories/"+url.PathEscape(id))
	if IsNotFound(err) {
		return nil, nil
	}
	return category, err
}

// CreateCategory validates in and returns the new category's id.
func (c *SDKClient) CreateCategory(ctx context.Context, in CategoryInput) (string, error) {
	if errs := in.Validate(); errs != nil {
		return "", validationError(errs)
	}

	var out resultEnvelope[struct {
		ID string `json:"id"`
	}]
	if err := c.sendJSON(ctx, http.MethodPost, "/categories", in, &out); err != nil {
		return "", err
	}
	return out.Result.ID, nil
}

// UpdateCategory applies the given fields to the category.
func (c *SDKClient) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) error {
	if errs := patch.Validate(); errs != nil {
		return validationError(errs)
	}
	return c.sendJSON(ctx, http.MethodPatch, "/categories/"+url.PathEscape(id), patch.Payload(), nil)
}

// DeleteCategory removes the category and returns what the backend deleted.
func (c *SDKClient) DeleteCategory(ctx context.Context, id string) (*Category, error) {
	var out resultEnvelope[*Category]
	if err := c.sendJSON(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// getResult performs a public GET and unwraps {"result": ...}.
func getResult[T any](ctx context.Context, c *SDKClient, path string) (T, error) {
	var out resultEnvelope[T]

	resp, err := c.doPublic(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return out.Result, err
	}
	if err := decodeJSON(resp, &out); err != nil {
		return out.Result, err
	}
	return out.Result, nil
}

// sendJSON performs an authenticated request with an optional JSON body.
func (c *SDKClient) sendJSON(ctx context.Context, method, path string, in, out any) error {
	if in == nil {
		resp, err := c.doAuth(ctx, method, path, nil, "")
		if err != nil {
			return err
		}
		return decodeJSON(resp, out)
	}

	body, err := jsonBody(in)
	if err != nil {
		return err
	}
	resp, err := c.doAuth(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}
