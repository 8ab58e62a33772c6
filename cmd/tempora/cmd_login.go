package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tempora-io/tempora-desktop/internal/config"
	"github.com/tempora-io/tempora-desktop/session"
	"github.com/tempora-io/tempora-desktop/statestore"
)

var loginRetryBootstrap bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and establish a server-side session",
	RunE:  runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&loginRetryBootstrap, "retry-bootstrap", false,
		"explicitly retry a bootstrap that previously required manual resolution")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	displayAppname(config.New().GetAppName())

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.idp.SignIn(ctx); err != nil {
		return errors.Wrap(err, "[runLogin] sign in")
	}

	credential, err := a.provider.GetCredential(ctx, false)
	if err != nil {
		return errors.Wrap(err, "[runLogin] credential acquisition")
	}
	rememberIdentifier(a, credential.SubjectID)

	state := a.sequencer.CheckStartup()
	switch state {
	case session.Succeeded:
		fmt.Println("Session already established; skipping bootstrap.")
	case session.FailedManualResolution:
		if !loginRetryBootstrap {
			printManualResolution()
			return nil
		}
		outcome := a.sequencer.Retry(ctx, credential.SubjectID)
		if !outcome.Success {
			return bootstrapFailure(outcome)
		}
	default:
		outcome := a.sequencer.Attempt(ctx, credential.SubjectID)
		if !outcome.Success {
			return bootstrapFailure(outcome)
		}
	}

	report, snapshot, err := a.loadAll(ctx)
	if err != nil {
		return err
	}
	printLoadReport(report, snapshot)
	return nil
}

func rememberIdentifier(a *app, subjectID string) {
	preference, err := a.store.Get(statestore.KeyRememberPreference)
	if err == nil && preference == "false" {
		return
	}
	if err := a.store.Set(statestore.KeyRememberedIdentifier, subjectID); err != nil {
		fmt.Printf("warning: could not remember identifier: %v\n", err)
	}
}

func bootstrapFailure(outcome session.BootstrapOutcome) error {
	if outcome.RequiresManualResolution {
		printManualResolution()
		return nil
	}
	return errors.Errorf("[runLogin] bootstrap failed: %s", outcome.Error)
}

func printManualResolution() {
	fmt.Println()
	fmt.Println("The server rejected session creation for this account even though")
	fmt.Println("your credential is valid. Automatic retries are disabled to avoid")
	fmt.Println("masking a backend misconfiguration. Either:")
	fmt.Println()
	fmt.Println("    tempora login --retry-bootstrap    # retry once, explicitly")
	fmt.Println("    tempora logout                     # sign out and start over")
	fmt.Println()
}
