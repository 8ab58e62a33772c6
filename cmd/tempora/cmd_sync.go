package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tempora-io/tempora-desktop/dataload"
	"github.com/tempora-io/tempora-desktop/internal/utils"
	"github.com/tempora-io/tempora-desktop/session"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the initial data load against the established session",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// The orchestrator only runs against a terminal bootstrap state.
	state := a.sequencer.CheckStartup()
	switch state {
	case session.FailedManualResolution:
		printManualResolution()
		return nil
	case session.Succeeded:
	default:
		return errors.New("[runSync] no established session; run `tempora login` first")
	}

	report, snapshot, err := a.loadAll(ctx)
	if err != nil {
		return err
	}
	printLoadReport(report, snapshot)
	return nil
}

func printLoadReport(report dataload.Report, snapshot *dataload.Snapshot) {
	switch report.Status {
	case dataload.StatusOK:
		fmt.Println("All resources loaded.")
	case dataload.StatusPartialData:
		fmt.Printf("Loaded with partial data; unavailable: %v\n", report.DegradedOnly)
	case dataload.StatusCriticalFailure:
		if report.SignOutSuggested {
			fmt.Printf("Critical resources failed (%v) and the session looks terminated.\n", report.CriticalFailures)
			fmt.Println("Run `tempora logout` and sign in again.")
			return
		}
		fmt.Printf("Critical resources failed: %v. Try again shortly.\n", report.CriticalFailures)
		return
	}

	profile := utils.Value(snapshot.Profile)
	if profile.ID != "" {
		fmt.Printf("Signed in as %s (%s)\n", profile.Name, profile.Email)
	}
	fmt.Printf("Projects: %d, clients: %d, tags: %d, time entries: %d, invoices: %d\n",
		len(snapshot.Projects), len(snapshot.Clients), len(snapshot.Tags),
		len(snapshot.TimeEntries), len(snapshot.Invoices))
}
