package http

import (
	"mime"
	"net/http"

	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/httpx"
	"github.com/dewataksu/dashboard/pkg/slogx"
)

// SessionResponse is the signed-in admin.
type SessionResponse struct {
	State string        `json:"state"`
	User  *dashsdk.User `json:"user,omitempty"`
}

// LoginPageResponse describes the login form.
type LoginPageResponse struct {
	Fields []string `json:"fields"`
}

// AuthHandler serves login, logout and the session probes.
type AuthHandler struct {
	Gate *Gate
}

// LoginPage handles GET /login
//
//	@Summary		Login page
//	@Description	Describes the login form. A browser that already holds a valid access cookie is sent to the dashboard.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	LoginPageResponse
//	@Success		303	"already signed in"
//	@Router			/login [get].
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.Gate != nil && h.Gate.Authenticated(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, LoginPageResponse{Fields: []string{"username", "password"}})
}

// Login handles POST /login
//
//	@Summary		Sign in
//	@Description	Exchanges credentials with the backend. Only admins get a session; anyone else is told the credentials are wrong.
//	@Tags			Session
//	@Accept			json
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		dashsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	SessionResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		401		{object}	httpx.ErrorBody	"wrong username or password"
//	@Failure		429		{object}	httpx.ErrorBody
//	@Router			/login [post].
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	sess := sessionFrom(r)

	var req dashsdk.LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else if !decodeBody(w, r, &req) {
		return
	}

	token, err := sess.client.Login(ctx, req.Username, req.Password)
	if err != nil {
		log.Info("login rejected", "username", req.Username, "error", err)
		writeSDKError(w, r, err)
		return
	}

	session := dashsdk.NewSession(sess.client, nil)
	if err := session.Login(ctx, token); err != nil {
		log.Info("login rejected", "username", req.Username, "error", err)
		sess.Forget()
		writeSDKError(w, r, err)
		return
	}

	log.Info("admin signed in", "user_id", session.User().ID)
	httpx.WriteJSON(w, http.StatusOK, SessionResponse{
		State: session.State().String(),
		User:  session.User(),
	})
}

// Logout handles POST /logout
//
//	@Summary		Sign out
//	@Description	Tells the backend to end the session, then clears the credential cookies whatever it answered.
//	@Tags			Session
//	@Success		303	"to the login page"
//	@Router			/logout [post].
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	session := dashsdk.NewSession(sess.client, sess.Forget)
	session.Logout(r.Context())

	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// Me handles GET /dashboard/me
//
//	@Summary		Current admin
//	@Description	Resolves the session against the backend identity endpoint.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Failure		401	{object}	httpx.ErrorBody	"session is gone"
//	@Router			/dashboard/me [get].
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	session := dashsdk.NewSession(sess.client, nil)
	if session.Init(r.Context()) != dashsdk.StateAuthenticated {
		sess.Forget()
		httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorBody{
			Errors:   "unauthorized",
			Redirect: LoginPath,
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, SessionResponse{
		State: session.State().String(),
		User:  session.User(),
	})
}
