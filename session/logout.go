package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tempora-io/tempora-desktop/api"
	"github.com/tempora-io/tempora-desktop/identity"
	"github.com/tempora-io/tempora-desktop/statestore"
)

// Reloader forces a full client restart so no stale in-memory state
// survives a logout. The UI layer supplies the real implementation.
type Reloader interface {
	Reload()
}

// CredentialReader is the slice of the credential provider the
// coordinator needs to learn the subject for the backend cleanup call.
type CredentialReader interface {
	GetCredential(ctx context.Context, forceRefresh bool) (*identity.Credential, error)
}

// Coordinator is the single authority that may terminate the local
// session. Concurrent trigger attempts are de-duplicated: the first
// caller runs the sequence, everyone else is dropped.
type Coordinator struct {
	api      SessionAPI
	store    statestore.Store
	idp      identity.IdentityProvider
	creds    CredentialReader
	reloader Reloader

	cleanupTimeout time.Duration
	inProgress     atomic.Bool
}

// CoordinatorOption defines a function type to modify the Coordinator instance.
type CoordinatorOption func(*Coordinator)

// WithCleanupTimeout bounds the best-effort backend cleanup call.
func WithCleanupTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.cleanupTimeout = timeout
	}
}

// NewCoordinator initializes a Coordinator with its required dependencies.
func NewCoordinator(sessionAPI SessionAPI, store statestore.Store, idp identity.IdentityProvider, creds CredentialReader, reloader Reloader, options ...CoordinatorOption) (*Coordinator, error) {
	if sessionAPI == nil {
		return nil, errors.New("[NewCoordinator] session API is required")
	}
	if store == nil {
		return nil, errors.New("[NewCoordinator] store is required")
	}
	if idp == nil {
		return nil, errors.New("[NewCoordinator] identity provider is required")
	}
	if reloader == nil {
		return nil, errors.New("[NewCoordinator] reloader is required")
	}

	coordinator := &Coordinator{
		api:            sessionAPI,
		store:          store,
		idp:            idp,
		creds:          creds,
		reloader:       reloader,
		cleanupTimeout: 10 * time.Second,
	}

	for _, opt := range options {
		opt(coordinator)
	}

	return coordinator, nil
}

// RequestLogout terminates the local session. Fire-and-forget: callers
// get no result, and a second call while a logout is underway is a
// no-op, never a duplicate reload.
//
// The sequence tolerates failure at every best-effort step; the user
// must never be left unable to log out because a cleanup call failed.
func (c *Coordinator) RequestLogout(reason api.Classification) {
	c.run(reason.String())
}

// RequestUserLogout runs the same sequence for an explicit user action.
func (c *Coordinator) RequestUserLogout() {
	c.run("user_requested")
}

func (c *Coordinator) run(reason string) {
	if !c.inProgress.CompareAndSwap(false, true) {
		log.Debug().Str("reason", reason).Msg("logout already in progress, dropping trigger")
		return
	}

	log.Info().Str("reason", reason).Msg("logging out")

	ctx, cancel := context.WithTimeout(context.Background(), c.cleanupTimeout)
	defer cancel()

	// (a) best-effort backend cleanup
	c.backendLogout(ctx)

	// (b) clear durable session artifacts
	c.clearLocalState()

	// (c) best-effort identity-provider sign-out
	if err := c.idp.SignOut(ctx); err != nil {
		log.Err(err).Msg("identity provider sign-out failed")
	}

	// (d) full reload; in-flight responses land in discarded state
	c.reloader.Reload()
}

// InProgress reports whether a logout sequence is underway.
func (c *Coordinator) InProgress() bool {
	return c.inProgress.Load()
}

func (c *Coordinator) backendLogout(ctx context.Context) {
	if c.creds == nil {
		return
	}
	credential, err := c.creds.GetCredential(ctx, false)
	if err != nil {
		log.Debug().Err(err).Msg("no credential for backend logout, skipping cleanup call")
		return
	}
	if err := c.api.Logout(ctx, credential.SubjectID); err != nil {
		log.Warn().Err(err).Msg("backend logout call failed")
	}
}

// clearLocalState removes every durable session artifact. The
// remembered identifier survives unless the user opted out of
// remembering it.
func (c *Coordinator) clearLocalState() {
	for _, key := range []string{
		statestore.KeyCachedSessionID,
		statestore.KeyLoginTimestamp,
		statestore.KeyBootstrapErrorMarker,
	} {
		if err := c.store.Delete(key); err != nil {
			log.Err(err).Str("key", key).Msg("failed to clear durable state")
		}
	}

	preference, err := c.store.Get(statestore.KeyRememberPreference)
	if err == nil && preference == "false" {
		if err := c.store.Delete(statestore.KeyRememberedIdentifier); err != nil {
			log.Err(err).Msg("failed to clear remembered identifier")
		}
	}
}
