package api

import (
	"net/http"
	"strings"
)

// Classification is the fixed set of categories every failed API call
// resolves to. It is derived per failure and never stored.
type Classification int

const (
	// Transient means a retry is safe and expected to eventually
	// succeed. The user keeps their session.
	Transient Classification = iota

	// PermissionDenied means the session is fine but the user lacks a
	// specific permission. It must never force a logout.
	PermissionDenied

	// SessionInvalid means the credential is structurally valid but the
	// server-side session is gone or was never established.
	SessionInvalid

	// CredentialExpired means the bearer credential itself is stale.
	// No session state can make this recoverable client-side.
	CredentialExpired
)

func (c Classification) String() string {
	switch c {
	case Transient:
		return "transient"
	case PermissionDenied:
		return "permission_denied"
	case SessionInvalid:
		return "session_invalid"
	case CredentialExpired:
		return "credential_expired"
	}
	return "unknown"
}

// ForcesLogout reports whether this classification may trigger the
// logout coordinator. Only SessionInvalid and CredentialExpired qualify.
func (c Classification) ForcesLogout() bool {
	return c == SessionInvalid || c == CredentialExpired
}

// sessionInvalidPhrases are the backend's known wordings for "there is
// no server-side session behind this request". A 403 carrying one of
// these is a session problem, not a permission problem.
var sessionInvalidPhrases = []string{
	"no active session",
	"session has been terminated",
	"session not found",
	"authentication required",
	"not authenticated",
}

// opaqueRejectionPhrases match transport-level errors that an
// authorization layer produces when it rejects a request before any
// handler runs. Browsers and HTTP stacks surface these without a status
// code, making them look like connectivity problems.
var opaqueRejectionPhrases = []string{
	"blocked by cors",
	"cross-origin request blocked",
	"failed to fetch",
	"load failed",
	"networkerror when attempting to fetch",
}

// Classify maps a failed API call onto exactly one Classification.
//
// Rules, in priority order:
//  1. 401 -> CredentialExpired
//  2. 403 with a session-invalidation message -> SessionInvalid
//  3. 403 otherwise -> PermissionDenied
//  4. no status, transport error matching an opaque-rejection pattern
//     -> SessionInvalid
//  5. everything else -> Transient
//
// Rule 4 is a heuristic: an opaque rejection cannot be distinguished
// from a genuine connectivity outage. Treating it as transient would
// leave a user with a revoked session stuck retrying forever, so the
// design errs towards SessionInvalid.
func Classify(failure *TransportFailure) Classification {
	if failure == nil {
		return Transient
	}

	switch failure.Status {
	case http.StatusUnauthorized:
		return CredentialExpired
	case http.StatusForbidden:
		if matchesAny(failure.Message, sessionInvalidPhrases) {
			return SessionInvalid
		}
		return PermissionDenied
	}

	if !failure.Reached() && failure.Err != nil {
		if matchesAny(failure.Err.Error(), opaqueRejectionPhrases) {
			return SessionInvalid
		}
	}

	return Transient
}

func matchesAny(message string, phrases []string) bool {
	if message == "" {
		return false
	}
	lowered := strings.ToLower(message)
	for _, phrase := range phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
