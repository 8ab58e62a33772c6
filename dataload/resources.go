package dataload

import (
	"context"
	"sync"

	"github.com/tempora-io/tempora-desktop/api"
)

// ResourceAPI is the slice of the REST client the initial load uses.
type ResourceAPI interface {
	GetProfile(ctx context.Context) (*api.Profile, error)
	GetWorkspaceSettings(ctx context.Context) (*api.WorkspaceSettings, error)
	ListProjects(ctx context.Context) ([]api.Project, error)
	ListClients(ctx context.Context) ([]api.BillingClient, error)
	ListTags(ctx context.Context) ([]api.Tag, error)
	ListTimeEntries(ctx context.Context) ([]api.TimeEntry, error)
	ListInvoices(ctx context.Context) ([]api.Invoice, error)
}

// Snapshot accumulates the initial-load payloads for the UI layer. It
// lives for one authenticated session and is discarded on logout.
type Snapshot struct {
	lock sync.RWMutex

	Profile     *api.Profile
	Settings    *api.WorkspaceSettings
	Projects    []api.Project
	Clients     []api.BillingClient
	Tags        []api.Tag
	TimeEntries []api.TimeEntry
	Invoices    []api.Invoice
}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Resource names of the fixed initial-load set.
const (
	ResourceProfile     = "profile"
	ResourceSettings    = "workspace-settings"
	ResourceProjects    = "projects"
	ResourceClients     = "clients"
	ResourceTags        = "tags"
	ResourceTimeEntries = "time-entries"
	ResourceInvoices    = "invoices"
)

// Resources builds the fixed initial-load set over client, writing
// results into snapshot. Profile, projects and workspace settings are
// critical: without them no other screen can render meaningfully.
func Resources(client ResourceAPI, snapshot *Snapshot) []Resource {
	return []Resource{
		{
			Name:     ResourceProfile,
			Critical: true,
			Fetch: func(ctx context.Context) error {
				profile, err := client.GetProfile(ctx)
				if err != nil {
					return err
				}
				snapshot.lock.Lock()
				snapshot.Profile = profile
				snapshot.lock.Unlock()
				return nil
			},
		},
		{
			Name:     ResourceSettings,
			Critical: true,
			Fetch: func(ctx context.Context) error {
				settings, err := client.GetWorkspaceSettings(ctx)
				if err != nil {
					return err
				}
				snapshot.lock.Lock()
				snapshot.Settings = settings
				snapshot.lock.Unlock()
				return nil
			},
		},
		{
			Name:     ResourceProjects,
			Critical: true,
			Fetch: func(ctx context.Context) error {
				projects, err := client.ListProjects(ctx)
				if err != nil {
					return err
				}
				snapshot.lock.Lock()
				snapshot.Projects = projects
				snapshot.lock.Unlock()
				return nil
			},
		},
		{
			Name: ResourceClients,
			Fetch: func(ctx context.Context) error {
				billingClients, err := client.ListClients(ctx)
				if err != nil {
					return err
				}
				snapshot.lock.Lock()
				snapshot.Clients = billingClients
				snapshot.lock.Unlock()
				return nil
			},
		},
		{
			Name: ResourceTags,
			Fetch: func(ctx context.Context) error {
				tags, err := client.ListTags(ctx)
				if err != nil {
					return err
				}
				snapshot.lock.Lock()
				snapshot.Tags = tags
				snapshot.lock.Unlock()
				return nil
			},
		},
		{
			Name: ResourceTimeEntries,
			Fetch: func(ctx context.Context) error {
				entries, err := client.ListTimeEntries(ctx)
				if err != nil {
					return err
				}
				snapshot.lock.Lock()
				snapshot.TimeEntries = entries
				snapshot.lock.Unlock()
				return nil
			},
		},
		{
			Name: ResourceInvoices,
			Fetch: func(ctx context.Context) error {
				invoices, err := client.ListInvoices(ctx)
				if err != nil {
					return err
				}
				snapshot.lock.Lock()
				snapshot.Invoices = invoices
				snapshot.lock.Unlock()
				return nil
			},
		},
	}
}
