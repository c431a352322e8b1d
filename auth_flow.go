package hubx

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Messages shown on the login view.
const (
	MsgInvalidEmail   = "Please enter a valid email address."
	MsgLoginSuccess   = "Login successful!"
	MsgBadCredentials = "Invalid email or password."
	MsgTryAgainLater  = "An error occurred. Please try again later."
)

// DefaultRedirectDelay is how long the success message stays visible
// before moving to the default view.
const DefaultRedirectDelay = 1500 * time.Millisecond

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Authenticator exchanges credentials for a LoginResponse.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
}

// Result is what the login view should show after a submission.
type Result struct {
	Message string

	// Redirect is set when the client is being moved away from the login
	// view, after RedirectAfter has elapsed.
	Redirect      string
	RedirectAfter time.Duration
}

// AuthFlow drives the login form: local validation, a single in-flight
// submission and the hand-off of the credential to the Session.
type AuthFlow struct {
	auth    Authenticator
	session *Session
	nav     Navigator
	delay   time.Duration
	after   func(time.Duration, func())
	log     *zap.Logger
	pending atomic.Bool
}

type authFlowConfig func(*AuthFlow)

// WithRedirectDelay sets the delay between a successful login and the
// navigation to DefaultPath. (default 1.5s.)
func WithRedirectDelay(d time.Duration) authFlowConfig {
	return authFlowConfig(func(f *AuthFlow) {
		f.delay = d
	})
}

// WithScheduler replaces time.AfterFunc for scheduling the post-login
// navigation.
func WithScheduler(after func(time.Duration, func())) authFlowConfig {
	return authFlowConfig(func(f *AuthFlow) {
		f.after = after
	})
}

// WithAuthLogger sets the logger used for login attempts.
func WithAuthLogger(log *zap.Logger) authFlowConfig {
	return authFlowConfig(func(f *AuthFlow) {
		f.log = log
	})
}

// NewAuthFlow returns an AuthFlow submitting through auth, logging into
// session and navigating with nav.
func NewAuthFlow(auth Authenticator, session *Session, nav Navigator, cfgs ...authFlowConfig) *AuthFlow {
	f := &AuthFlow{
		auth:    auth,
		session: session,
		nav:     nav,
		delay:   DefaultRedirectDelay,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
		log: zap.NewNop(),
	}

	for _, cfg := range cfgs {
		cfg(f)
	}
	return f
}

// Pending reports whether a submission is in flight.
func (f *AuthFlow) Pending() bool {
	return f.pending.Load()
}

// Submit validates and submits a login. The returned error classifies
// failures (ErrInvalidEmail, ErrInFlight, ErrRejected, ErrTransport); the
// Result always carries the message to display. An already authenticated
// session is sent to DefaultPath without touching the network.
func (f *AuthFlow) Submit(ctx context.Context, email, password string) (Result, error) {
	if f.session.IsAuthenticated() {
		return Result{Redirect: DefaultPath}, nil
	}

	if !ValidEmail(email) {
		return Result{Message: MsgInvalidEmail}, ErrInvalidEmail
	}

	if !f.pending.CompareAndSwap(false, true) {
		return Result{}, ErrInFlight
	}
	defer f.pending.Store(false)

	resp, err := f.auth.Login(ctx, email, password)
	if err != nil {
		f.log.Error("login error", zap.String("email", email), zap.Error(err))
		return Result{Message: MsgTryAgainLater}, transportError(err)
	}

	if resp.AccessToken == "" {
		msg := resp.Error
		if msg == "" {
			msg = MsgBadCredentials
		}
		f.log.Info("login rejected", zap.String("email", email), zap.String("reason", resp.Error))
		return Result{Message: msg}, fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	if err := f.session.Login(resp.AccessToken); err != nil {
		f.log.Error("persist credential", zap.Error(err))
		return Result{Message: MsgTryAgainLater}, transportError(err)
	}

	f.log.Info("login succeeded", zap.String("email", email))
	f.after(f.delay, func() {
		f.nav.Go(DefaultPath)
	})
	return Result{Message: MsgLoginSuccess, Redirect: DefaultPath, RedirectAfter: f.delay}, nil
}

func transportError(err error) error {
	if errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
