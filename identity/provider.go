package identity

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/tempora-io/tempora-desktop/internal/errors"
)

// TokenPair is the raw output of one identity-provider read. Either
// token may be absent.
type TokenPair struct {
	AccessToken string
	IDToken     string
}

// IdentityProvider is the external identity system. The desktop core
// treats it as a black box: it can start and end the device's single
// provider session and report the current tokens.
type IdentityProvider interface {
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	CurrentTokens(ctx context.Context, forceRefresh bool) (TokenPair, error)
}

// Provider acquires and decodes the current bearer credential. It is a
// pure read plus local decode; it never writes anything.
type Provider struct {
	idp    IdentityProvider
	clock  clockwork.Clock
	flight singleflight.Group
}

// ProviderOption defines a function type to modify the Provider instance.
type ProviderOption func(*Provider)

// WithClock sets the clock (primarily for testing)
func WithClock(clock clockwork.Clock) ProviderOption {
	return func(p *Provider) {
		p.clock = clock
	}
}

// NewProvider initializes a Provider with the given identity provider.
func NewProvider(idp IdentityProvider, options ...ProviderOption) (*Provider, error) {
	if idp == nil {
		return nil, errors.New("[NewProvider] identity provider is required")
	}

	provider := &Provider{
		idp:   idp,
		clock: clockwork.NewRealClock(),
	}

	for _, opt := range options {
		opt(provider)
	}

	return provider, nil
}

// GetCredential returns the current bearer credential. The access token
// is always preferred; the ID token is a degraded fallback since some
// endpoints reject it.
func (p *Provider) GetCredential(ctx context.Context, forceRefresh bool) (*Credential, error) {
	pair, err := p.idp.CurrentTokens(ctx, forceRefresh)
	if err != nil {
		return nil, errors.Wrap(err, "[GetCredential] CurrentTokens")
	}

	raw := pair.AccessToken
	kind := AccessToken
	if raw == "" {
		raw = pair.IDToken
		kind = IDToken
		if raw != "" {
			log.Warn().Msg("no access token available, falling back to ID token (degraded mode)")
		}
	}
	if raw == "" {
		return nil, apperrors.ErrNoCredential
	}

	claims, err := decodeClaims(raw)
	if err != nil {
		return nil, errors.Wrap(err, "[GetCredential] decode")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.Wrap(apperrors.ErrMalformedCredential, "[GetCredential] missing sub claim")
	}

	return &Credential{
		SubjectID: sub,
		Kind:      kind,
		ExpiresAt: decodeExpiry(claims),
		Raw:       raw,
	}, nil
}

// Token implements the API client's TokenSource. An expired credential
// triggers one forced refresh before giving up; concurrent callers
// hitting the expiry together share a single refresh.
func (p *Provider) Token(ctx context.Context) (string, error) {
	credential, err := p.GetCredential(ctx, false)
	if err != nil {
		return "", err
	}
	if !credential.Expired(p.clock.Now()) {
		return credential.Raw, nil
	}

	refreshed, err, _ := p.flight.Do("refresh", func() (interface{}, error) {
		return p.GetCredential(ctx, true)
	})
	if err != nil {
		return "", err
	}
	return refreshed.(*Credential).Raw, nil
}
