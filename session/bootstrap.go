// Package session owns the server-side session lifecycle on the client:
// the bootstrap sequencer that creates the session record after login,
// and the logout coordinator that is the single authority allowed to
// terminate the local session.
package session

import (
	"context"
	"strconv"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tempora-io/tempora-desktop/api"
	apperrors "github.com/tempora-io/tempora-desktop/internal/errors"
	"github.com/tempora-io/tempora-desktop/statestore"
)

// SessionAPI is the slice of the REST client the session package needs.
type SessionAPI interface {
	CreateSession(ctx context.Context, subjectID string) (*api.SessionRecord, error)
	Logout(ctx context.Context, subjectID string) error
}

// Sequencer drives the bootstrap state machine. It creates the
// server-side session record once per successful credential
// acquisition, and it is the only writer of the durable bootstrap
// marker and cached session id.
type Sequencer struct {
	api         SessionAPI
	store       statestore.Store
	coordinator *Coordinator
	clock       clockwork.Clock

	lock      sync.Mutex
	state     BootstrapState
	outcome   BootstrapOutcome
	sessionID string
}

// SequencerOption defines a function type to modify the Sequencer instance.
type SequencerOption func(*Sequencer)

// WithSequencerClock sets the clock (primarily for testing)
func WithSequencerClock(clock clockwork.Clock) SequencerOption {
	return func(s *Sequencer) {
		s.clock = clock
	}
}

// NewSequencer initializes a Sequencer with its required dependencies.
// coordinator may be nil, in which case post-bootstrap session failures
// are only surfaced, never escalated to a forced logout.
func NewSequencer(sessionAPI SessionAPI, store statestore.Store, coordinator *Coordinator, options ...SequencerOption) (*Sequencer, error) {
	if sessionAPI == nil {
		return nil, errors.New("[NewSequencer] session API is required")
	}
	if store == nil {
		return nil, errors.New("[NewSequencer] store is required")
	}

	sequencer := &Sequencer{
		api:         sessionAPI,
		store:       store,
		coordinator: coordinator,
		clock:       clockwork.NewRealClock(),
		state:       Idle,
	}

	for _, opt := range options {
		opt(sequencer)
	}

	return sequencer, nil
}

// CheckStartup inspects durable storage before any network call and
// positions the state machine accordingly:
//
//   - cached session id present: any marker is stale and discarded, the
//     session is already established, bootstrap is skipped entirely.
//   - manual-resolution marker present and no cached id: re-enter
//     FailedManualResolution directly so the recovery UI shows
//     immediately, without a network round trip.
//   - neither: Idle, a fresh Attempt is expected.
func (s *Sequencer) CheckStartup() BootstrapState {
	s.lock.Lock()
	defer s.lock.Unlock()

	cachedID, idErr := s.store.Get(statestore.KeyCachedSessionID)
	if idErr == nil && cachedID != "" {
		if err := s.store.Delete(statestore.KeyBootstrapErrorMarker); err != nil {
			log.Err(err).Msg("failed to discard stale bootstrap marker")
		}
		s.sessionID = cachedID
		s.state = Succeeded
		s.outcome = BootstrapOutcome{Success: true}
		return s.state
	}

	rawMarker, markerErr := s.store.Get(statestore.KeyBootstrapErrorMarker)
	if markerErr == nil {
		outcome, err := parseOutcome(rawMarker)
		if err == nil && outcome.RequiresManualResolution {
			s.state = FailedManualResolution
			s.outcome = outcome
			return s.state
		}
		// Unparseable or non-manual markers are junk from an older
		// build; drop them rather than wedge startup.
		if err := s.store.Delete(statestore.KeyBootstrapErrorMarker); err != nil {
			log.Err(err).Msg("failed to discard unreadable bootstrap marker")
		}
	}

	s.state = Idle
	return s.state
}

// Attempt runs one bootstrap attempt for the given subject. It is a
// no-op when an attempt is already running or the session is already
// established; the state-machine guard is what makes concurrent
// attempts impossible.
func (s *Sequencer) Attempt(ctx context.Context, subjectID string) BootstrapOutcome {
	s.lock.Lock()
	switch s.state {
	case Attempting:
		s.lock.Unlock()
		return BootstrapOutcome{Error: "bootstrap already in progress"}
	case Succeeded:
		outcome := s.outcome
		s.lock.Unlock()
		return outcome
	case FailedManualResolution:
		// Manual resolution means exactly that: no automatic re-entry.
		// Retry is the explicit transition out of this state.
		outcome := s.outcome
		s.lock.Unlock()
		return outcome
	}
	firstTime := s.isFirstBootstrapLocked()
	s.state = Attempting
	s.lock.Unlock()

	record, err := s.api.CreateSession(ctx, subjectID)
	if err != nil {
		return s.failed(err, firstTime)
	}
	return s.succeeded(record.ID)
}

// Retry is the explicit state-machine transition back into Attempting.
// It is the only way out of FailedManualResolution besides logout.
func (s *Sequencer) Retry(ctx context.Context, subjectID string) BootstrapOutcome {
	s.lock.Lock()
	if s.state == Attempting || s.state == Succeeded {
		outcome := s.outcome
		s.lock.Unlock()
		return outcome
	}
	s.state = Idle
	s.lock.Unlock()

	return s.Attempt(ctx, subjectID)
}

// State returns the current state machine position.
func (s *Sequencer) State() BootstrapState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// SessionID returns the locally cached session record id, empty until
// bootstrap succeeds.
func (s *Sequencer) SessionID() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.sessionID
}

func (s *Sequencer) succeeded(sessionID string) BootstrapOutcome {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.store.Set(statestore.KeyCachedSessionID, sessionID); err != nil {
		log.Err(err).Msg("failed to cache session id")
	}
	timestamp := strconv.FormatInt(s.clock.Now().Unix(), 10)
	if err := s.store.Set(statestore.KeyLoginTimestamp, timestamp); err != nil {
		log.Err(err).Msg("failed to store login timestamp")
	}
	// A known session id is evidence any earlier deadlock resolved.
	if err := s.store.Delete(statestore.KeyBootstrapErrorMarker); err != nil {
		log.Err(err).Msg("failed to clear bootstrap marker")
	}

	s.sessionID = sessionID
	s.state = Succeeded
	s.outcome = BootstrapOutcome{Success: true}
	log.Info().Str("session_id", sessionID).Msg("bootstrap succeeded")
	return s.outcome
}

func (s *Sequencer) failed(err error, firstTime bool) BootstrapOutcome {
	classification := classifyErr(err)

	s.lock.Lock()
	defer s.lock.Unlock()

	switch classification {
	case api.Transient:
		s.state = FailedRetryable
		s.outcome = BootstrapOutcome{Error: err.Error()}
		log.Warn().Err(err).Msg("bootstrap failed, retryable")
		return s.outcome

	case api.CredentialExpired:
		// No session state can fix a stale credential; hand over to
		// the coordinator regardless of bootstrap phase.
		s.state = FailedRetryable
		s.outcome = BootstrapOutcome{Error: err.Error()}
		if s.coordinator != nil {
			s.coordinator.RequestLogout(classification)
		}
		return s.outcome

	case api.SessionInvalid, api.PermissionDenied:
		if firstTime {
			// The deadlock: a valid credential cannot acquire a session
			// because session creation itself is rejected for lack of a
			// session. Halt durably; silent retries would only mask a
			// backend misconfiguration.
			s.state = FailedManualResolution
			s.outcome = BootstrapOutcome{
				Error:                    err.Error(),
				RequiresManualResolution: true,
			}
			if raw, marshalErr := s.outcome.marshal(); marshalErr == nil {
				if storeErr := s.store.Set(statestore.KeyBootstrapErrorMarker, raw); storeErr != nil {
					log.Err(storeErr).Msg("failed to persist bootstrap marker")
				}
			}
			log.Error().Err(err).Str("classification", classification.String()).
				Msg("bootstrap deadlock, manual resolution required")
			return s.outcome
		}

		s.state = FailedRetryable
		s.outcome = BootstrapOutcome{Error: err.Error()}
		if classification == api.SessionInvalid && s.coordinator != nil {
			s.coordinator.RequestLogout(classification)
		}
		return s.outcome
	}

	s.state = FailedRetryable
	s.outcome = BootstrapOutcome{Error: err.Error()}
	return s.outcome
}

// isFirstBootstrapLocked reports whether this client has never had an
// established session: no cached id and no existing durable marker.
func (s *Sequencer) isFirstBootstrapLocked() bool {
	if s.sessionID != "" {
		return false
	}
	if id, err := s.store.Get(statestore.KeyCachedSessionID); err == nil && id != "" {
		return false
	}
	if _, err := s.store.Get(statestore.KeyBootstrapErrorMarker); err == nil {
		return false
	}
	return true
}

func classifyErr(err error) api.Classification {
	var failure *api.TransportFailure
	if apperrors.As(err, &failure) {
		return api.Classify(failure)
	}
	return api.Transient
}
