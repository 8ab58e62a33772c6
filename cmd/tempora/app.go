package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tempora-io/tempora-desktop/api"
	"github.com/tempora-io/tempora-desktop/dataload"
	"github.com/tempora-io/tempora-desktop/identity"
	"github.com/tempora-io/tempora-desktop/identity/oidcidp"
	"github.com/tempora-io/tempora-desktop/internal/config"
	"github.com/tempora-io/tempora-desktop/session"
	"github.com/tempora-io/tempora-desktop/statestore"
	"github.com/tempora-io/tempora-desktop/statestore/badgerstore"
)

// app wires the session core together for one CLI invocation.
type app struct {
	cfg         config.Config
	store       statestore.Store
	idp         identity.IdentityProvider
	provider    *identity.Provider
	client      *api.Client
	coordinator *session.Coordinator
	sequencer   *session.Sequencer
}

// consoleReloader stands in for the desktop shell's full-reload hook.
// In the CLI the process ends anyway; the next start re-reads durable
// state, which is the same guarantee.
type consoleReloader struct{}

func (consoleReloader) Reload() {
	log.Info().Msg("local session cleared")
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.New()

	store, err := badgerstore.Open(cfg.GetDataDir(), badgerstore.Options{
		DeviceSecret: cfg.GetDeviceSecret(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[newApp] opening state store")
	}

	idp, err := oidcidp.New(ctx, oidcidp.Config{
		IssuerURL: cfg.GetIssuerURL(),
		ClientID:  cfg.GetClientID(),
		Scopes:    cfg.GetScopes(),
	})
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "[newApp] identity provider setup")
	}

	provider, err := identity.NewProvider(idp)
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "[newApp] credential provider setup")
	}

	client := api.NewClient(cfg.GetAPIBaseURL(), provider)

	coordinator, err := session.NewCoordinator(client, store, idp, provider, consoleReloader{})
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "[newApp] logout coordinator setup")
	}

	sequencer, err := session.NewSequencer(client, store, coordinator)
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "[newApp] bootstrap sequencer setup")
	}

	return &app{
		cfg:         cfg,
		store:       store,
		idp:         idp,
		provider:    provider,
		client:      client,
		coordinator: coordinator,
		sequencer:   sequencer,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Err(err).Msg("failed to close state store")
	}
}

// loadAll runs the initial data load and returns its report.
func (a *app) loadAll(ctx context.Context) (dataload.Report, *dataload.Snapshot, error) {
	snapshot := dataload.NewSnapshot()
	orchestrator, err := dataload.NewOrchestrator(dataload.Resources(a.client, snapshot))
	if err != nil {
		return dataload.Report{}, nil, errors.Wrap(err, "[loadAll] orchestrator setup")
	}
	report, err := orchestrator.LoadAll(ctx)
	if err != nil {
		return dataload.Report{}, nil, errors.Wrap(err, "[loadAll] LoadAll")
	}
	return report, snapshot, nil
}
