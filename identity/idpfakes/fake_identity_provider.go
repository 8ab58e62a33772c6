package idpfakes

import (
	"context"
	"sync"
	"time"

	"github.com/tempora-io/tempora-desktop/identity"
)

var _ identity.IdentityProvider = (*FakeIdentityProvider)(nil)

// FakeIdentityProvider is a scripted in-memory identity provider for
// tests.
type FakeIdentityProvider struct {
	lock sync.Mutex

	Tokens          identity.TokenPair
	RefreshedTokens *identity.TokenPair // returned when forceRefresh is true, if set
	RefreshDelay    time.Duration       // simulated latency of a forced refresh
	TokensErr       error
	SignInErr       error
	SignOutErr      error

	SignInCalls        int
	SignOutCalls       int
	CurrentTokensCalls int
	RefreshCalls       int
}

func NewFakeIdentityProvider() *FakeIdentityProvider {
	return &FakeIdentityProvider{}
}

func (f *FakeIdentityProvider) SignIn(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.SignInCalls++
	return f.SignInErr
}

func (f *FakeIdentityProvider) SignOut(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.SignOutCalls++
	return f.SignOutErr
}

func (f *FakeIdentityProvider) CurrentTokens(ctx context.Context, forceRefresh bool) (identity.TokenPair, error) {
	f.lock.Lock()
	delay := f.RefreshDelay

	f.CurrentTokensCalls++
	if forceRefresh {
		f.RefreshCalls++
	}
	if f.TokensErr != nil {
		f.lock.Unlock()
		return identity.TokenPair{}, f.TokensErr
	}
	if forceRefresh && f.RefreshedTokens != nil {
		// A real provider caches what it refreshed; later plain reads
		// see the fresh tokens.
		f.Tokens = *f.RefreshedTokens
		tokens := f.Tokens
		f.lock.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		return tokens, nil
	}
	tokens := f.Tokens
	f.lock.Unlock()
	return tokens, nil
}
