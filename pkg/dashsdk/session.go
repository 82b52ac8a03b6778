package dashsdk

import (
	"context"
	"sync"
)

// State of a Session.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Session tracks who is logged in. The user is set only after a successful
// identity fetch that returned an admin.
type Session struct {
	client   *SDKClient
	navigate func()

	mu    sync.RWMutex
	state State
	user  *User
}

// NewSession returns a Session in the Loading state. navigate is called after
// Logout to send the user to the login page; it may be nil.
func NewSession(client *SDKClient, navigate func()) *Session {
	return &Session{
		client:   client,
		navigate: navigate,
		state:    StateLoading,
	}
}

// Init resolves the Loading state. Without a stored token no request is made.
// A failed identity fetch clears the token.
func (s *Session) Init(ctx context.Context) State {
	if _, ok := s.client.tokens.Get(); !ok {
		s.set(StateAnonymous, nil)
		return StateAnonymous
	}

	user, err := s.client.Me(ctx)
	if err != nil || !user.IsAdmin() {
		if err != nil {
			s.client.logger.DebugContext(ctx, "session init failed", "error", err)
		}
		s.client.tokens.Clear()
		s.set(StateAnonymous, nil)
		return StateAnonymous
	}

	s.set(StateAuthenticated, user)
	return StateAuthenticated
}

// Login stores accessToken and fetches the identity. A non-admin identity
// discards the token and returns ErrNotAdmin.
func (s *Session) Login(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return ErrNoToken
	}
	s.client.SetAccessToken(accessToken)

	user, err := s.client.Me(ctx)
	if err != nil {
		s.client.tokens.Clear()
		s.set(StateAnonymous, nil)
		return err
	}
	if !user.IsAdmin() {
		s.client.tokens.Clear()
		s.set(StateAnonymous, nil)
		return ErrNotAdmin
	}

	s.set(StateAuthenticated, user)
	return nil
}

// Logout notifies the backend, then clears the token and the user and
// navigates away whatever the backend answered.
func (s *Session) Logout(ctx context.Context) {
	if err := s.client.Logout(ctx); err != nil {
		s.client.logger.WarnContext(ctx, "logout request failed", "error", err)
	}

	s.client.tokens.Clear()
	s.set(StateAnonymous, nil)

	if s.navigate != nil {
		s.navigate()
	}
}

// User returns the logged-in admin or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) IsAuthenticated() bool { return s.State() == StateAuthenticated }

func (s *Session) IsLoading() bool { return s.State() == StateLoading }

func (s *Session) set(state State, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.user = user
}
