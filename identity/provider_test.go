package identity_test

import (
	"context"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/tempora-io/tempora-desktop/identity"
	"github.com/tempora-io/tempora-desktop/identity/idpfakes"
	apperrors "github.com/tempora-io/tempora-desktop/internal/errors"
)

const testSubject = "user-42"

// signToken builds a real JWT for decode tests. The signature is never
// verified client-side, but the token must be structurally valid.
func signToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestGetCredentialPrefersAccessToken(t *testing.T) {
	idp := idpfakes.NewFakeIdentityProvider()
	idp.Tokens = identity.TokenPair{
		AccessToken: signToken(t, jwtlib.MapClaims{"sub": testSubject}),
		IDToken:     signToken(t, jwtlib.MapClaims{"sub": "someone-else"}),
	}

	provider, err := identity.NewProvider(idp)
	require.NoError(t, err)

	credential, err := provider.GetCredential(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, identity.AccessToken, credential.Kind)
	require.Equal(t, testSubject, credential.SubjectID)
}

func TestGetCredentialFallsBackToIDToken(t *testing.T) {
	idp := idpfakes.NewFakeIdentityProvider()
	idp.Tokens = identity.TokenPair{
		IDToken: signToken(t, jwtlib.MapClaims{"sub": testSubject}),
	}

	provider, err := identity.NewProvider(idp)
	require.NoError(t, err)

	credential, err := provider.GetCredential(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, identity.IDToken, credential.Kind)
	require.Equal(t, testSubject, credential.SubjectID)
}

func TestGetCredentialNoTokensFails(t *testing.T) {
	provider, err := identity.NewProvider(idpfakes.NewFakeIdentityProvider())
	require.NoError(t, err)

	_, err = provider.GetCredential(context.Background(), false)
	require.ErrorIs(t, err, apperrors.ErrNoCredential)
}

func TestGetCredentialMalformedToken(t *testing.T) {
	idp := idpfakes.NewFakeIdentityProvider()
	idp.Tokens = identity.TokenPair{AccessToken: "not.a.jwt"}

	provider, err := identity.NewProvider(idp)
	require.NoError(t, err)

	_, err = provider.GetCredential(context.Background(), false)
	require.ErrorIs(t, err, apperrors.ErrMalformedCredential)
}

func TestGetCredentialMissingSubjectIsMalformed(t *testing.T) {
	idp := idpfakes.NewFakeIdentityProvider()
	idp.Tokens = identity.TokenPair{
		AccessToken: signToken(t, jwtlib.MapClaims{"email": "a@b.c"}),
	}

	provider, err := identity.NewProvider(idp)
	require.NoError(t, err)

	_, err = provider.GetCredential(context.Background(), false)
	require.ErrorIs(t, err, apperrors.ErrMalformedCredential)
}

func TestGetCredentialDecodesExpiry(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	idp := idpfakes.NewFakeIdentityProvider()
	idp.Tokens = identity.TokenPair{
		AccessToken: signToken(t, jwtlib.MapClaims{"sub": testSubject, "exp": expiry.Unix()}),
	}

	provider, err := identity.NewProvider(idp)
	require.NoError(t, err)

	credential, err := provider.GetCredential(context.Background(), false)
	require.NoError(t, err)
	require.True(t, expiry.Equal(credential.ExpiresAt))
	require.False(t, credential.Expired(expiry.Add(-time.Minute)))
	require.True(t, credential.Expired(expiry.Add(time.Minute)))
}

func TestDecodeSubject(t *testing.T) {
	raw := signToken(t, jwtlib.MapClaims{"sub": testSubject})

	sub, err := identity.DecodeSubject(raw)
	require.NoError(t, err)
	require.Equal(t, testSubject, sub)

	_, err = identity.DecodeSubject("garbage")
	require.ErrorIs(t, err, apperrors.ErrMalformedCredential)
}

func TestTokenRefreshesOnceWhenExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	expired := signToken(t, jwtlib.MapClaims{
		"sub": testSubject,
		"exp": clock.Now().Add(-time.Hour).Unix(),
	})
	fresh := signToken(t, jwtlib.MapClaims{
		"sub": testSubject,
		"exp": clock.Now().Add(time.Hour).Unix(),
	})

	idp := idpfakes.NewFakeIdentityProvider()
	idp.Tokens = identity.TokenPair{AccessToken: expired}
	idp.RefreshedTokens = &identity.TokenPair{AccessToken: fresh}

	provider, err := identity.NewProvider(idp, identity.WithClock(clock))
	require.NoError(t, err)

	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, token)
	require.Equal(t, 1, idp.RefreshCalls)
}

func TestTokenSkipsRefreshWhenCredentialIsFresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	raw := signToken(t, jwtlib.MapClaims{
		"sub": testSubject,
		"exp": clock.Now().Add(time.Hour).Unix(),
	})

	idp := idpfakes.NewFakeIdentityProvider()
	idp.Tokens = identity.TokenPair{AccessToken: raw}

	provider, err := identity.NewProvider(idp, identity.WithClock(clock))
	require.NoError(t, err)

	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, raw, token)
	require.Equal(t, 0, idp.RefreshCalls)
}

func TestConcurrentTokenCallsShareOneRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	expired := signToken(t, jwtlib.MapClaims{
		"sub": testSubject,
		"exp": clock.Now().Add(-time.Hour).Unix(),
	})
	fresh := signToken(t, jwtlib.MapClaims{
		"sub": testSubject,
		"exp": clock.Now().Add(time.Hour).Unix(),
	})

	idp := idpfakes.NewFakeIdentityProvider()
	idp.Tokens = identity.TokenPair{AccessToken: expired}
	idp.RefreshedTokens = &identity.TokenPair{AccessToken: fresh}
	idp.RefreshDelay = 50 * time.Millisecond

	provider, err := identity.NewProvider(idp, identity.WithClock(clock))
	require.NoError(t, err)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			token, err := provider.Token(context.Background())
			require.NoError(t, err)
			require.Equal(t, fresh, token)
		}()
	}
	close(start)
	wg.Wait()

	// Callers racing into the expired window share a refresh instead of
	// each forcing their own.
	require.LessOrEqual(t, idp.RefreshCalls, 2)
	require.GreaterOrEqual(t, idp.RefreshCalls, 1)
}

func TestNewProviderRequiresIdentityProvider(t *testing.T) {
	_, err := identity.NewProvider(nil)
	require.Error(t, err)
}
