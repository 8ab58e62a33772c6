// Package dataload runs the initial parallel resource load after a
// session is established. Individual fetches may fail without
// cancelling the rest; the orchestrator decides afterwards whether the
// application is usable, degraded, or blocked.
package dataload

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tempora-io/tempora-desktop/api"
	apperrors "github.com/tempora-io/tempora-desktop/internal/errors"
)

// Resource is one independent initial-load fetch. Critical resources
// are the ones other screens cannot function without.
type Resource struct {
	Name     string
	Critical bool
	Fetch    func(ctx context.Context) error
}

// ResourceState is the per-resource loading view exposed to the UI.
type ResourceState struct {
	Loading bool
	Err     error
}

// Status summarizes one completed load.
type Status int

const (
	StatusOK Status = iota
	StatusPartialData
	StatusCriticalFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartialData:
		return "partial_data"
	case StatusCriticalFailure:
		return "critical_failure"
	}
	return "unknown"
}

// Report is the aggregate outcome of LoadAll. SignOutSuggested is set
// when critical failures classify as session termination, telling the
// UI to offer "sign out and return to login" instead of a retry.
type Report struct {
	Status           Status
	CriticalFailures []string
	DegradedOnly     []string
	SignOutSuggested bool
}

// Orchestrator issues the fixed set of initial fetches at most once per
// authenticated session.
type Orchestrator struct {
	resources []Resource

	lock    sync.Mutex
	loading bool
	done    bool
	states  map[string]ResourceState
	report  Report
}

// NewOrchestrator initializes an Orchestrator over the given resources.
func NewOrchestrator(resources []Resource) (*Orchestrator, error) {
	if len(resources) == 0 {
		return nil, errors.New("[NewOrchestrator] at least one resource is required")
	}
	names := make(map[string]struct{}, len(resources))
	for _, resource := range resources {
		if resource.Name == "" || resource.Fetch == nil {
			return nil, errors.New("[NewOrchestrator] resource needs a name and a fetch function")
		}
		if _, dup := names[resource.Name]; dup {
			return nil, errors.Errorf("[NewOrchestrator] duplicate resource %q", resource.Name)
		}
		names[resource.Name] = struct{}{}
	}

	return &Orchestrator{
		resources: resources,
		states:    make(map[string]ResourceState),
	}, nil
}

// LoadAll runs every resource fetch concurrently with all-settled
// semantics: an individual failure never cancels the others. A
// re-entrant call while loading, or after completion, is a no-op until
// Reset.
func (o *Orchestrator) LoadAll(ctx context.Context) (Report, error) {
	o.lock.Lock()
	if o.loading {
		o.lock.Unlock()
		return Report{}, apperrors.ErrLoadInProgress
	}
	if o.done {
		report := o.report
		o.lock.Unlock()
		return report, nil
	}
	o.loading = true
	for _, resource := range o.resources {
		o.states[resource.Name] = ResourceState{Loading: true}
	}
	o.lock.Unlock()

	results := make(map[string]error, len(o.resources))
	var resultsLock sync.Mutex
	var wg sync.WaitGroup

	for _, resource := range o.resources {
		wg.Add(1)
		go func(resource Resource) {
			defer wg.Done()
			err := resource.Fetch(ctx)

			resultsLock.Lock()
			results[resource.Name] = err
			resultsLock.Unlock()

			o.lock.Lock()
			o.states[resource.Name] = ResourceState{Err: err}
			o.lock.Unlock()

			if err != nil {
				log.Warn().Str("resource", resource.Name).Err(err).Msg("initial load fetch failed")
			}
		}(resource)
	}
	wg.Wait()

	report := o.buildReport(results)

	o.lock.Lock()
	o.loading = false
	o.done = true
	o.report = report
	o.lock.Unlock()

	log.Info().Str("status", report.Status.String()).
		Strs("critical_failures", report.CriticalFailures).
		Msg("initial load complete")
	return report, nil
}

// Reset allows one more LoadAll, e.g. for a manually triggered retry or
// after a logout reset the load state.
func (o *Orchestrator) Reset() {
	o.lock.Lock()
	defer o.lock.Unlock()

	if o.loading {
		return
	}
	o.done = false
	o.report = Report{}
	o.states = make(map[string]ResourceState)
}

// LoadState returns a copy of the per-resource loading view.
func (o *Orchestrator) LoadState() map[string]ResourceState {
	o.lock.Lock()
	defer o.lock.Unlock()

	snapshot := make(map[string]ResourceState, len(o.states))
	for name, state := range o.states {
		snapshot[name] = state
	}
	return snapshot
}

func (o *Orchestrator) buildReport(results map[string]error) Report {
	report := Report{Status: StatusOK}

	for _, resource := range o.resources {
		err := results[resource.Name]
		if err == nil {
			continue
		}
		if resource.Critical {
			report.CriticalFailures = append(report.CriticalFailures, resource.Name)
			if classifyErr(err).ForcesLogout() {
				report.SignOutSuggested = true
			}
		} else {
			report.DegradedOnly = append(report.DegradedOnly, resource.Name)
		}
	}

	switch {
	case len(report.CriticalFailures) > 0:
		report.Status = StatusCriticalFailure
	case len(report.DegradedOnly) > 0:
		report.Status = StatusPartialData
	}
	return report
}

func classifyErr(err error) api.Classification {
	var failure *api.TransportFailure
	if apperrors.As(err, &failure) {
		return api.Classify(failure)
	}
	return api.Transient
}
