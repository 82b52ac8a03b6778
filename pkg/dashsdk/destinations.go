package dashsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ListDestinations returns a page of destinations. Page and size are always
// sent, defaulting to 1 and 10.
func (c *SDKClient) ListDestinations(ctx context.Context, params ListParams) (*DestinationPage, error) {
	return getResult[*DestinationPage](ctx, c, "/destinations?"+params.Query().Encode())
}

// GetDestination returns the destination or nil if the backend has none by
// slug.
func (c *SDKClient) GetDestination(ctx context.Context, slug string) (*Destination, error) {
	d, err := getResult[*Destination](ctx, c, "/destinations/"+url.PathEscape(slug))
	if IsNotFound(err) {
		return nil, nil
	}
	return d, err
}

// CreateDestination validates in and creates the destination.
func (c *SDKClient) CreateDestination(ctx context.Context, in DestinationInput) (*Destination, error) {
	if errs := in.Validate(); errs != nil {
		return nil, validationError(errs)
	}

	var out resultEnvelope[*Destination]
	if err := c.sendJSON(ctx, http.MethodPost, "/destinations", in.Payload(), &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// UpdateDestination sends the fields of patch that differ from old. old may
// be nil, in which case every given field is sent.
func (c *SDKClient) UpdateDestination(ctx context.Context, id string, patch DestinationPatch, old *Destination) error {
	if errs := patch.Validate(); errs != nil {
		return validationError(errs)
	}
	return c.sendJSON(ctx, http.MethodPatch, "/destinations/"+url.PathEscape(id), patch.Payload(old), nil)
}

// DeleteDestination removes the destination by id.
func (c *SDKClient) DeleteDestination(ctx context.Context, id string) (*Destination, error) {
	var out resultEnvelope[*Destination]
	if err := c.sendJSON(ctx, http.MethodDelete, "/destinations/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}
