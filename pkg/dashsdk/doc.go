/*
Package dashsdk provides a client SDK for the Dewataksu content backend used by
the admin dashboard.

# Overview

The SDK keeps an admin session alive against the backend. It is organised
around four pieces:

  - TokenStore: where the short-lived access token lives (a cookie)
  - SDKClient: a public client for anonymous reads and an authenticated
    client whose transport attaches the bearer token and refreshes on 401
  - Gateway: coordinates refreshes so that at most one GET /token is in
    flight per refresh credential; everyone who hit 401 meanwhile shares it
  - Session: the Loading/Authenticated/Anonymous state with the admin gate

Create a client and a session:

	client, err := dashsdk.NewSDKClient("https://dewataksu-backend.vercel.app/api",
		dashsdk.WithSessionExpiredHandler(func() { redirect("/login") }),
	)

	session := dashsdk.NewSession(client, func() { redirect("/login") })
	session.Init(ctx)

	token, err := client.Login(ctx, "admin", "secret")
	if err := session.Login(ctx, token); errors.Is(err, dashsdk.ErrNotAdmin) {
		// wrong username or password
	}

Resource calls go through the client. Reads use the public client, writes use
the authenticated one:

	page, err := client.ListCategories(ctx, dashsdk.ListParams{Page: 1, Size: 10})
	id, err := client.CreateCategory(ctx, dashsdk.CategoryInput{Name: "Beach"})

# Refresh on 401

When an authenticated call receives 401 the transport asks the Gateway for a
new token. The first caller starts GET /token; concurrent callers for the same
refresh cookie wait on that flight. On success every caller retries its own
request once with the new token. On failure the token store is cleared, the
session-expired handler runs once, and every caller receives an error matching
ErrSessionExpired. A retried request that is rejected again is returned as is.

# Errors

Backend failures are returned as *APIError carrying a Kind:

	var apiErr *dashsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == dashsdk.KindValidation {
		fmt.Println(apiErr.Message)
	}

# Thread Safety

SDKClient, Gateway and Session are safe for concurrent use.
*/
package dashsdk
