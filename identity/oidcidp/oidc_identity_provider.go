// Package oidcidp implements the identity provider against a real OIDC
// issuer using the device authorization flow, which suits a desktop
// client with no redirect URI of its own.
package oidcidp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/tempora-io/tempora-desktop/identity"
	apperrors "github.com/tempora-io/tempora-desktop/internal/errors"
)

var _ identity.IdentityProvider = (*OIDCIdentityProvider)(nil)

// Config holds the settings needed to talk to the issuer.
type Config struct {
	IssuerURL string
	ClientID  string
	Scopes    []string
}

// OIDCIdentityProvider manages the device's single provider session.
type OIDCIdentityProvider struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client

	// revocationEndpoint comes from the discovery document; empty when
	// the issuer does not advertise one.
	revocationEndpoint string

	lock    sync.Mutex
	current *oauth2.Token
	idToken string
}

// New discovers the issuer's endpoints and returns a provider ready for
// SignIn. Discovery is the only network call made here.
func New(ctx context.Context, cfg Config) (*OIDCIdentityProvider, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("[oidcidp.New] issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[oidcidp.New] client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "[oidcidp.New] OIDC discovery failed")
	}

	var discovered struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	if err := provider.Claims(&discovered); err != nil {
		log.Debug().Err(err).Msg("could not read extra discovery claims")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}

	return &OIDCIdentityProvider{
		oauthConfig: &oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: provider.Endpoint(),
			Scopes:   scopes,
		},
		httpClient:         &http.Client{Timeout: 30 * time.Second},
		revocationEndpoint: discovered.RevocationEndpoint,
	}, nil
}

// SignIn runs the OAuth2 device authorization flow: it prints the user
// code and verification URL, then polls the issuer until the user
// approves or the code expires.
func (p *OIDCIdentityProvider) SignIn(ctx context.Context) error {
	deviceAuth, err := p.oauthConfig.DeviceAuth(ctx)
	if err != nil {
		return errors.Wrap(err, "[SignIn] device authorization request")
	}

	printDeviceInstructions(deviceAuth)

	token, err := p.oauthConfig.DeviceAccessToken(ctx, deviceAuth)
	if err != nil {
		return errors.Wrap(err, "[SignIn] device access token")
	}

	p.storeToken(token)
	log.Info().Time("expires_at", token.Expiry).Msg("signed in")
	return nil
}

// SignOut revokes the refresh token when the issuer supports it and
// always drops the in-memory tokens. Revocation failures are logged,
// not returned: local sign-out must never be blocked by the issuer.
func (p *OIDCIdentityProvider) SignOut(ctx context.Context) error {
	p.lock.Lock()
	token := p.current
	p.current = nil
	p.idToken = ""
	p.lock.Unlock()

	if token == nil || token.RefreshToken == "" || p.revocationEndpoint == "" {
		return nil
	}

	form := url.Values{
		"token":           {token.RefreshToken},
		"token_type_hint": {"refresh_token"},
		"client_id":       {p.oauthConfig.ClientID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revocationEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Err(err).Msg("failed to build revocation request")
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Err(err).Msg("token revocation failed")
		return nil
	}
	resp.Body.Close()
	return nil
}

// CurrentTokens returns the current access and ID tokens, refreshing
// through the issuer when the access token lapsed or forceRefresh is
// set.
func (p *OIDCIdentityProvider) CurrentTokens(ctx context.Context, forceRefresh bool) (identity.TokenPair, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.current == nil {
		return identity.TokenPair{}, apperrors.ErrNoCredential
	}

	token := *p.current
	if forceRefresh {
		// An already-expired expiry makes the token source refresh
		// unconditionally on the next Token call.
		token.Expiry = time.Now().Add(-time.Minute)
	}

	fresh, err := p.oauthConfig.TokenSource(ctx, &token).Token()
	if err != nil {
		return identity.TokenPair{}, errors.Wrap(err, "[CurrentTokens] refresh")
	}

	if rawID, ok := fresh.Extra("id_token").(string); ok && rawID != "" {
		p.idToken = rawID
	}
	p.current = fresh

	return identity.TokenPair{
		AccessToken: fresh.AccessToken,
		IDToken:     p.idToken,
	}, nil
}

func (p *OIDCIdentityProvider) storeToken(token *oauth2.Token) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.current = token
	if rawID, ok := token.Extra("id_token").(string); ok && rawID != "" {
		p.idToken = rawID
	}
}

func printDeviceInstructions(deviceAuth *oauth2.DeviceAuthResponse) {
	fmt.Println()
	fmt.Println("To sign in, open the following URL in a browser:")
	fmt.Println()
	if deviceAuth.VerificationURIComplete != "" {
		fmt.Printf("    %s\n", deviceAuth.VerificationURIComplete)
	} else {
		fmt.Printf("    %s\n", deviceAuth.VerificationURI)
		fmt.Println()
		fmt.Printf("and enter the code: %s\n", deviceAuth.UserCode)
	}
	fmt.Println()
}
