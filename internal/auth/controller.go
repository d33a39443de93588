package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/contractintel/cip-client/internal/api"
	"github.com/contractintel/cip-client/internal/cache"
	"github.com/contractintel/cip-client/internal/domain"
	"github.com/contractintel/cip-client/internal/session"
)

// State is the lifecycle position of the client session.
type State string

const (
	StateAnonymous        State = "anonymous"
	StateRedirecting      State = "redirecting-to-provider"
	StateAwaitingCallback State = "awaiting-callback"
	StateExchanging       State = "exchanging"
	StateAuthenticated    State = "authenticated"
)

// Authorizer produces a provider-issued identity assertion. Satisfied by
// *Flow; tests substitute a stub.
type Authorizer interface {
	Authorize(ctx context.Context) (string, error)
}

// Controller owns the sign-in state machine. Forward edges run through
// SignIn; the reverse edge runs through Logout or HandleUnauthorized when
// the backend reports the session invalid.
type Controller struct {
	client  *api.Client
	session session.Store
	cache   *cache.Cache
	flow    Authorizer
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

// NewController creates a controller in the anonymous state.
func NewController(client *api.Client, sess session.Store, c *cache.Cache, flow Authorizer, logger *slog.Logger) *Controller {
	return &Controller{
		client:  client,
		session: sess,
		cache:   c,
		flow:    flow,
		logger:  logger,
		state:   StateAnonymous,
	}
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// SignIn runs the provider flow and the backend exchange. On success the
// returned CSRF token is persisted and the identity assertion is dropped;
// on failure the state returns to anonymous with a sign-in-error notice
// recorded for the next view.
func (c *Controller) SignIn(ctx context.Context) (*domain.SignInResult, error) {
	c.setState(StateRedirecting)

	c.setState(StateAwaitingCallback)
	idToken, err := c.flow.Authorize(ctx)
	if err != nil {
		c.failSignIn("provider authorization failed", err)
		return nil, err
	}

	c.setState(StateExchanging)
	result, err := c.client.SignIn(ctx, idToken)
	if err != nil {
		c.failSignIn("backend sign-in failed", err)
		return nil, err
	}
	if err := c.session.SetCSRFToken(result.CSRFToken); err != nil {
		c.failSignIn("persisting csrf token failed", err)
		return nil, err
	}
	if err := c.session.SetNotice(session.NoticeSignedIn); err != nil {
		c.logger.Warn("recording signed-in notice failed", slog.String("error", err.Error()))
	}

	// The sign-in response already carries the profile; seed the cache so
	// the first profile read after login needs no network call.
	profile := result.User()
	cache.Put(c.cache, cache.Key{Kind: cache.KindUser}, &profile)

	c.setState(StateAuthenticated)
	c.logger.Info("signed in", slog.String("username", result.Username))
	return result, nil
}

func (c *Controller) failSignIn(msg string, err error) {
	c.logger.Error(msg, slog.String("error", err.Error()))
	if nerr := c.session.SetNotice(session.NoticeSignInError); nerr != nil {
		c.logger.Warn("recording sign-in-error notice failed", slog.String("error", nerr.Error()))
	}
	c.setState(StateAnonymous)
}

// Logout calls the backend logout endpoint, then clears all client state.
// The clear happens even when the backend call fails: a session the
// backend no longer honors is worthless to keep.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.client.Logout(ctx)
	if err != nil {
		c.logger.Warn("backend logout failed", slog.String("error", err.Error()))
	}

	c.cache.Clear()
	if cerr := c.session.Clear(); cerr != nil {
		c.logger.Warn("clearing session state failed", slog.String("error", cerr.Error()))
	}
	if nerr := c.session.SetNotice(session.NoticeSignedOut); nerr != nil {
		c.logger.Warn("recording signed-out notice failed", slog.String("error", nerr.Error()))
	}
	c.setState(StateAnonymous)
	return err
}

// HandleUnauthorized is the reaction to a 401 observed anywhere in the
// system. Wired as the cache's unauthorized hook; the cache has already
// cleared itself by the time this runs. Idempotent.
func (c *Controller) HandleUnauthorized() {
	c.mu.Lock()
	already := c.state == StateAnonymous
	c.state = StateAnonymous
	c.mu.Unlock()
	if already {
		return
	}
	if err := c.session.Clear(); err != nil {
		c.logger.Warn("clearing session state failed", slog.String("error", err.Error()))
	}
	c.logger.Info("session invalidated by backend")
}

// Guard gates protected work behind profile resolution. The protected
// function never runs while the profile fetch is outstanding and never
// runs after a failed resolution; a failure flips the state machine back
// to anonymous and is returned for the caller to surface.
func (c *Controller) Guard(ctx context.Context, profile func(context.Context) (*domain.User, error), protected func(context.Context, *domain.User) error) error {
	user, err := profile(ctx)
	if err != nil {
		if domain.IsUnauthorized(err) {
			c.HandleUnauthorized()
		}
		return err
	}
	c.setState(StateAuthenticated)
	return protected(ctx, user)
}
