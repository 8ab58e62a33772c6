package session

import "encoding/json"

// BootstrapState is the sequencer's state machine position.
type BootstrapState int

const (
	Idle BootstrapState = iota
	Attempting
	Succeeded
	FailedRetryable
	FailedManualResolution
)

func (s BootstrapState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case FailedRetryable:
		return "failed_retryable"
	case FailedManualResolution:
		return "failed_manual_resolution"
	}
	return "unknown"
}

// Terminal reports whether the state ends a bootstrap attempt. The data
// load orchestrator must not start before a terminal state is reached.
func (s BootstrapState) Terminal() bool {
	return s == Succeeded || s == FailedRetryable || s == FailedManualResolution
}

// BootstrapOutcome is the result of one bootstrap attempt. Only the
// RequiresManualResolution=true case is ever durably persisted, so a
// reload surfaces the recovery screen instead of silently retrying.
type BootstrapOutcome struct {
	Success                  bool   `json:"success"`
	Error                    string `json:"error,omitempty"`
	RequiresManualResolution bool   `json:"requiresManualResolution"`
}

func (o BootstrapOutcome) marshal() (string, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func parseOutcome(raw string) (BootstrapOutcome, error) {
	var outcome BootstrapOutcome
	err := json.Unmarshal([]byte(raw), &outcome)
	return outcome, err
}
