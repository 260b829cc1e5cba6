package client

import "sync"

// Session holds the bearer token of a logged-in user. The zero value is an
// empty session and is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	token    string
	onLogout []func()
}

func NewSession() *Session {
	return &Session{}
}

// Init stores the token returned by a successful login.
func (s *Session) Init(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear drops the token and runs the logout hooks if a token was present.
func (s *Session) Clear() {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	if !had {
		return
	}
	for _, fn := range hooks {
		fn()
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Active() bool {
	return s.Token() != ""
}

// OnLogout registers fn to run whenever an active session is cleared.
func (s *Session) OnLogout(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}
