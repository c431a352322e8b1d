package hubx

import (
	"sync"

	"go.uber.org/zap"
)

// State is the client-side belief about whether a credential is held.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Session is the process-wide authentication state machine. There is
// exactly one per running client; it is built once at startup and passed
// to every component that needs it.
//
// The session is authenticated if and only if its TokenStore holds a
// non-empty credential. Transitions are serialized and every subscriber
// observes a transition before Login or Logout returns.
//
// Usage:
//
//	tokens := hubx.NewTokenStore(memstore.New(), "")
//	sess, err := hubx.NewSession(tokens)
//	if err != nil {
//	    return err
//	}
//	unsubscribe := sess.Subscribe(func(s hubx.State) {
//	    fmt.Println("session is now", s)
//	})
//	defer unsubscribe()
//
//	sess.Login("abc")
type Session struct {
	tokens *TokenStore
	log    *zap.Logger

	// transition serializes Login/Logout including subscriber delivery
	transition sync.Mutex

	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	order  []int
	nextID int
}

type sessionConfig func(*Session)

// WithSessionLogger sets the logger used for session transitions.
func WithSessionLogger(log *zap.Logger) sessionConfig {
	return sessionConfig(func(s *Session) {
		s.log = log
	})
}

// NewSession creates the session and computes its initial state from the
// token currently held by tokens.
func NewSession(tokens *TokenStore, cfgs ...sessionConfig) (*Session, error) {
	s := &Session{
		tokens: tokens,
		log:    zap.NewNop(),
		subs:   make(map[int]func(State)),
	}

	for _, cfg := range cfgs {
		cfg(s)
	}

	_, ok, err := tokens.Read()
	if err != nil {
		return nil, err
	}
	if ok {
		s.state = Authenticated
	}

	s.log.Debug("session restored", zap.Stringer("state", s.state))
	return s, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether a credential is held.
func (s *Session) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// Login persists token and moves to Authenticated. Logging in while
// already authenticated overwrites the stored token. If the token cannot
// be persisted the state is left unchanged.
func (s *Session) Login(token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.transition.Lock()
	defer s.transition.Unlock()

	if err := s.tokens.Save(token); err != nil {
		return err
	}

	s.set(Authenticated)
	return nil
}

// Logout clears the token and moves to Unauthenticated. It is valid from
// either state. If the token cannot be cleared the state is left
// unchanged.
func (s *Session) Logout() error {
	s.transition.Lock()
	defer s.transition.Unlock()

	if err := s.tokens.Clear(); err != nil {
		return err
	}

	s.set(Unauthenticated)
	return nil
}

// Subscribe registers fn to be called with the new state after every
// transition. Callbacks run synchronously on the goroutine performing the
// transition and must not call Login or Logout. The returned function
// removes the subscription.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// set must be called with s.transition held.
func (s *Session) set(state State) {
	s.mu.Lock()
	s.state = state
	subs := make([]func(State), 0, len(s.order))
	for _, id := range s.order {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	s.log.Info("session transition", zap.Stringer("state", state))

	for _, fn := range subs {
		fn(state)
	}
}
