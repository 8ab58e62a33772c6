package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempora-io/tempora-desktop/api"
	apperrors "github.com/tempora-io/tempora-desktop/internal/errors"
	"github.com/tempora-io/tempora-desktop/session"
	"github.com/tempora-io/tempora-desktop/session/sessionfakes"
	"github.com/tempora-io/tempora-desktop/statestore"
	"github.com/tempora-io/tempora-desktop/statestore/storefakes"
)

const testSubjectID = "user-42"

type bootstrapFixture struct {
	sessionAPI *sessionfakes.FakeSessionAPI
	store      *storefakes.FakeStore
	sequencer  *session.Sequencer
}

func setupBootstrapFixture(t *testing.T) *bootstrapFixture {
	t.Helper()

	sessionAPI := sessionfakes.NewFakeSessionAPI()
	store := storefakes.NewFakeStore()

	sequencer, err := session.NewSequencer(sessionAPI, store, nil)
	require.NoError(t, err)

	return &bootstrapFixture{
		sessionAPI: sessionAPI,
		store:      store,
		sequencer:  sequencer,
	}
}

func storedOutcome(t *testing.T, store *storefakes.FakeStore) session.BootstrapOutcome {
	t.Helper()

	raw, err := store.Get(statestore.KeyBootstrapErrorMarker)
	require.NoError(t, err)
	var outcome session.BootstrapOutcome
	require.NoError(t, json.Unmarshal([]byte(raw), &outcome))
	return outcome
}

func TestAttemptSuccessCachesSessionID(t *testing.T) {
	f := setupBootstrapFixture(t)
	f.sessionAPI.Record = &api.SessionRecord{ID: "sess-1", IsCurrent: true}

	outcome := f.sequencer.Attempt(context.Background(), testSubjectID)
	require.True(t, outcome.Success)
	require.Equal(t, session.Succeeded, f.sequencer.State())
	require.Equal(t, "sess-1", f.sequencer.SessionID())

	cached, err := f.store.Get(statestore.KeyCachedSessionID)
	require.NoError(t, err)
	require.Equal(t, "sess-1", cached)

	_, err = f.store.Get(statestore.KeyLoginTimestamp)
	require.NoError(t, err)
}

func TestAttemptSuccessClearsPriorMarker(t *testing.T) {
	f := setupBootstrapFixture(t)
	marker, err := json.Marshal(session.BootstrapOutcome{RequiresManualResolution: true})
	require.NoError(t, err)
	require.NoError(t, f.store.Set(statestore.KeyBootstrapErrorMarker, string(marker)))

	outcome := f.sequencer.Attempt(context.Background(), testSubjectID)
	require.True(t, outcome.Success)

	_, err = f.store.Get(statestore.KeyBootstrapErrorMarker)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
}

func TestAttemptTransientFailurePersistsNothing(t *testing.T) {
	f := setupBootstrapFixture(t)
	f.sessionAPI.CreateSessionErr = &api.TransportFailure{Status: http.StatusServiceUnavailable}

	outcome := f.sequencer.Attempt(context.Background(), testSubjectID)
	require.False(t, outcome.Success)
	require.False(t, outcome.RequiresManualResolution)
	require.Equal(t, session.FailedRetryable, f.sequencer.State())
	require.Zero(t, f.store.Len())
}

func TestAttemptFirstTimeDeadlockPersistsMarker(t *testing.T) {
	f := setupBootstrapFixture(t)
	f.sessionAPI.CreateSessionErr = &api.TransportFailure{
		Status:  http.StatusForbidden,
		Message: "no active sessions",
	}

	outcome := f.sequencer.Attempt(context.Background(), testSubjectID)
	require.False(t, outcome.Success)
	require.True(t, outcome.RequiresManualResolution)
	require.Equal(t, session.FailedManualResolution, f.sequencer.State())

	stored := storedOutcome(t, f.store)
	require.False(t, stored.Success)
	require.True(t, stored.RequiresManualResolution)
}

func TestAttemptPermissionDeniedFirstTimeAlsoDeadlocks(t *testing.T) {
	f := setupBootstrapFixture(t)
	f.sessionAPI.CreateSessionErr = &api.TransportFailure{
		Status:  http.StatusForbidden,
		Message: "you can only access your own resource",
	}

	outcome := f.sequencer.Attempt(context.Background(), testSubjectID)
	require.True(t, outcome.RequiresManualResolution)
	require.Equal(t, session.FailedManualResolution, f.sequencer.State())
}

func TestManualResolutionStateDoesNotRetryAutomatically(t *testing.T) {
	f := setupBootstrapFixture(t)
	f.sessionAPI.CreateSessionErr = &api.TransportFailure{
		Status:  http.StatusForbidden,
		Message: "authentication required",
	}

	f.sequencer.Attempt(context.Background(), testSubjectID)
	require.Equal(t, 1, f.sessionAPI.CreateSessionCalls)

	// Further Attempt calls are inert; only Retry re-enters Attempting.
	f.sequencer.Attempt(context.Background(), testSubjectID)
	f.sequencer.Attempt(context.Background(), testSubjectID)
	require.Equal(t, 1, f.sessionAPI.CreateSessionCalls)
	require.Equal(t, session.FailedManualResolution, f.sequencer.State())
}

func TestRetryFromManualResolutionSucceeds(t *testing.T) {
	f := setupBootstrapFixture(t)
	f.sessionAPI.CreateSessionErr = &api.TransportFailure{
		Status:  http.StatusForbidden,
		Message: "no active sessions",
	}
	f.sequencer.Attempt(context.Background(), testSubjectID)
	require.Equal(t, session.FailedManualResolution, f.sequencer.State())

	// Backend fixed; explicit retry should recover and clear the marker.
	f.sessionAPI.CreateSessionErr = nil
	f.sessionAPI.Record = &api.SessionRecord{ID: "sess-2"}

	outcome := f.sequencer.Retry(context.Background(), testSubjectID)
	require.True(t, outcome.Success)
	require.Equal(t, session.Succeeded, f.sequencer.State())

	_, err := f.store.Get(statestore.KeyBootstrapErrorMarker)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
}

func TestCheckStartupWithMarkerAndNoSessionID(t *testing.T) {
	f := setupBootstrapFixture(t)
	marker, err := json.Marshal(session.BootstrapOutcome{
		Error:                    "no active sessions",
		RequiresManualResolution: true,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Set(statestore.KeyBootstrapErrorMarker, string(marker)))

	state := f.sequencer.CheckStartup()
	require.Equal(t, session.FailedManualResolution, state)

	// No network call was made to reach that state.
	require.Zero(t, f.sessionAPI.CreateSessionCalls)
}

func TestCheckStartupDiscardsStaleMarkerWhenSessionCached(t *testing.T) {
	f := setupBootstrapFixture(t)
	marker, err := json.Marshal(session.BootstrapOutcome{RequiresManualResolution: true})
	require.NoError(t, err)
	require.NoError(t, f.store.Set(statestore.KeyBootstrapErrorMarker, string(marker)))
	require.NoError(t, f.store.Set(statestore.KeyCachedSessionID, "sess-9"))

	state := f.sequencer.CheckStartup()
	require.Equal(t, session.Succeeded, state)
	require.Equal(t, "sess-9", f.sequencer.SessionID())

	_, err = f.store.Get(statestore.KeyBootstrapErrorMarker)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
	require.Zero(t, f.sessionAPI.CreateSessionCalls)
}

func TestCheckStartupDropsUnreadableMarker(t *testing.T) {
	f := setupBootstrapFixture(t)
	require.NoError(t, f.store.Set(statestore.KeyBootstrapErrorMarker, "{corrupt"))

	state := f.sequencer.CheckStartup()
	require.Equal(t, session.Idle, state)

	_, err := f.store.Get(statestore.KeyBootstrapErrorMarker)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
}

func TestSessionInvalidAfterEstablishedSessionIsNotADeadlock(t *testing.T) {
	f := setupBootstrapFixture(t)

	// A session id from a previous run exists, so this is not a
	// first-time bootstrap even though this process never succeeded.
	require.NoError(t, f.store.Set(statestore.KeyCachedSessionID, "sess-old"))

	f.sessionAPI.CreateSessionErr = &api.TransportFailure{
		Status:  http.StatusForbidden,
		Message: "no active sessions",
	}

	outcome := f.sequencer.Attempt(context.Background(), testSubjectID)
	require.False(t, outcome.Success)
	require.False(t, outcome.RequiresManualResolution)
	require.Equal(t, session.FailedRetryable, f.sequencer.State())

	_, err := f.store.Get(statestore.KeyBootstrapErrorMarker)
	require.ErrorIs(t, err, apperrors.ErrKeyNotFound)
}

func TestCredentialExpiredTriggersLogoutCoordinator(t *testing.T) {
	sessionAPI := sessionfakes.NewFakeSessionAPI()
	store := storefakes.NewFakeStore()
	reloader := sessionfakes.NewFakeReloader()
	idp := newNoopIdentityProvider()

	coordinator, err := session.NewCoordinator(sessionAPI, store, idp, nil, reloader)
	require.NoError(t, err)

	sequencer, err := session.NewSequencer(sessionAPI, store, coordinator)
	require.NoError(t, err)

	sessionAPI.CreateSessionErr = &api.TransportFailure{Status: http.StatusUnauthorized}

	outcome := sequencer.Attempt(context.Background(), testSubjectID)
	require.False(t, outcome.Success)
	require.Equal(t, 1, reloader.Reloads())
	require.Equal(t, 1, idp.signOutCalls())
}

func TestNewSequencerValidatesDependencies(t *testing.T) {
	_, err := session.NewSequencer(nil, storefakes.NewFakeStore(), nil)
	require.Error(t, err)

	_, err = session.NewSequencer(sessionfakes.NewFakeSessionAPI(), nil, nil)
	require.Error(t, err)
}
