package dashsdk

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for an access token via POST /login. It does
// not store the token; hand it to Session.Login, which applies the admin
// gate first. The refresh cookie the backend sets lands in the jar.
func (c *SDKClient) Login(ctx context.Context, username, password string) (string, error) {
	body, err := jsonBody(LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}

	resp, err := c.doPublic(ctx, http.MethodPost, "/login", body, "application/json")
	if err != nil {
		return "", err
	}

	var out dataEnvelope[TokenResponse]
	if err := decodeJSON(resp, &out); err != nil {
		return "", err
	}
	if out.Data.AccessToken == "" {
		return "", ErrNoToken
	}

	return out.Data.AccessToken, nil
}

// Me fetches the identity behind the stored access token via GET /me.
func (c *SDKClient) Me(ctx context.Context) (*User, error) {
	resp, err := c.doAuth(ctx, http.MethodGet, "/me", nil, "")
	if err != nil {
		return nil, err
	}

	var out dataEnvelope[*User]
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("identity missing from response")
	}

	return out.Data, nil
}

// Logout tells the backend to end the session via DELETE /logout. It does
// not touch the token store; Session.Logout does that regardless of the
// outcome here.
func (c *SDKClient) Logout(ctx context.Context) error {
	resp, err := c.doAuth(ctx, http.MethodDelete, "/logout", nil, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// refreshAccessToken calls GET /token with the refresh cookie from the jar.
// It goes through the public client so a 401 here fails the refresh instead
// of recursing into another one.
func (c *SDKClient) refreshAccessToken(ctx context.Context) (string, error) {
	resp, err := c.doPublic(ctx, http.MethodGet, "/token", nil, "")
	if err != nil {
		return "", err
	}

	var out dataEnvelope[TokenResponse]
	if err := decodeJSON(resp, &out); err != nil {
		return "", err
	}
	if out.Data.AccessToken == "" {
		return "", ErrNoToken
	}

	return out.Data.AccessToken, nil
}
