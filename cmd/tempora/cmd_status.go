package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tempora-io/tempora-desktop/internal/config"
	apperrors "github.com/tempora-io/tempora-desktop/internal/errors"
	"github.com/tempora-io/tempora-desktop/statestore"
	"github.com/tempora-io/tempora-desktop/statestore/badgerstore"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local session state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// runStatus only reads durable state; it deliberately makes no network
// calls and does not touch the identity provider.
func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.New()
	store, err := badgerstore.Open(cfg.GetDataDir(), badgerstore.Options{
		DeviceSecret: cfg.GetDeviceSecret(),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	printKey(store, statestore.KeyCachedSessionID, "Session id", func(v string) string { return v })
	printKey(store, statestore.KeyLoginTimestamp, "Logged in at", formatUnix)
	printKey(store, statestore.KeyRememberedIdentifier, "Remembered identifier", func(v string) string { return v })

	if _, err := store.Get(statestore.KeyBootstrapErrorMarker); err == nil {
		fmt.Println("Bootstrap:             manual resolution required (run `tempora login --retry-bootstrap`)")
	} else if apperrors.Is(err, apperrors.ErrKeyNotFound) {
		fmt.Println("Bootstrap:             ok")
	}
	return nil
}

func printKey(store statestore.Store, key, label string, format func(string) string) {
	value, err := store.Get(key)
	if err != nil {
		fmt.Printf("%-22s (none)\n", label+":")
		return
	}
	fmt.Printf("%-22s %s\n", label+":", format(value))
}

func formatUnix(value string) string {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return value
	}
	return time.Unix(seconds, 0).Format(time.RFC1123)
}
