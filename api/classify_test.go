package api_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempora-io/tempora-desktop/api"
)

func TestClassifyStatus401IsCredentialExpired(t *testing.T) {
	tests := []struct {
		name    string
		failure *api.TransportFailure
	}{
		{"bare 401", &api.TransportFailure{Status: http.StatusUnauthorized}},
		{"401 with message", &api.TransportFailure{Status: http.StatusUnauthorized, Message: "token expired"}},
		{"401 with session phrase", &api.TransportFailure{Status: http.StatusUnauthorized, Message: "no active sessions"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, api.CredentialExpired, api.Classify(tc.failure))
		})
	}
}

func TestClassifyStatus403SessionPhrasesAreSessionInvalid(t *testing.T) {
	messages := []string{
		"No active sessions for this user",
		"Session has been terminated by an administrator",
		"Authentication required",
		"session not found",
		"User is NOT AUTHENTICATED",
	}

	for _, message := range messages {
		t.Run(message, func(t *testing.T) {
			failure := &api.TransportFailure{Status: http.StatusForbidden, Message: message}
			require.Equal(t, api.SessionInvalid, api.Classify(failure))
		})
	}
}

func TestClassifyStatus403OtherwiseIsPermissionDenied(t *testing.T) {
	messages := []string{
		"you can only access your own time entries",
		"insufficient workspace role",
		"forbidden",
		"",
	}

	for _, message := range messages {
		t.Run(message, func(t *testing.T) {
			failure := &api.TransportFailure{Status: http.StatusForbidden, Message: message}
			classification := api.Classify(failure)
			require.Equal(t, api.PermissionDenied, classification)
			require.False(t, classification.ForcesLogout())
		})
	}
}

func TestClassifyOpaqueTransportRejectionIsSessionInvalid(t *testing.T) {
	tests := []string{
		"request blocked by CORS policy",
		"Cross-Origin Request Blocked: the same origin policy disallows reading",
		"Failed to fetch",
		"NetworkError when attempting to fetch resource",
	}

	for _, message := range tests {
		t.Run(message, func(t *testing.T) {
			failure := &api.TransportFailure{Err: errors.New(message)}
			require.Equal(t, api.SessionInvalid, api.Classify(failure))
		})
	}
}

func TestClassifyEverythingElseIsTransient(t *testing.T) {
	tests := []struct {
		name    string
		failure *api.TransportFailure
	}{
		{"nil failure", nil},
		{"500", &api.TransportFailure{Status: http.StatusInternalServerError}},
		{"503", &api.TransportFailure{Status: http.StatusServiceUnavailable}},
		{"404", &api.TransportFailure{Status: http.StatusNotFound}},
		{"connection refused", &api.TransportFailure{Err: errors.New("dial tcp 127.0.0.1:443: connection refused")}},
		{"timeout", &api.TransportFailure{Err: errors.New("context deadline exceeded")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			classification := api.Classify(tc.failure)
			require.Equal(t, api.Transient, classification)
			require.False(t, classification.ForcesLogout())
		})
	}
}

func TestClassificationForcesLogout(t *testing.T) {
	require.True(t, api.SessionInvalid.ForcesLogout())
	require.True(t, api.CredentialExpired.ForcesLogout())
	require.False(t, api.Transient.ForcesLogout())
	require.False(t, api.PermissionDenied.ForcesLogout())
}

func TestClassifyRulePriorityStatusBeatsTransportError(t *testing.T) {
	// A failure that somehow carries both a status and a transport
	// error resolves on the status rules first.
	failure := &api.TransportFailure{
		Status: http.StatusForbidden,
		Err:    errors.New("Failed to fetch"),
	}
	require.Equal(t, api.PermissionDenied, api.Classify(failure))
}
