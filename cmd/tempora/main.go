package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tempora-io/tempora-desktop/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "tempora",
	Short: "Tempora desktop session core",
	Long:  "Session lifecycle tooling for the Tempora time-tracking desktop client: sign in, bootstrap the server-side session, and run the initial data load.",
}

func main() {
	cfg := config.New()
	setupLogging(cfg.GetLogLevel())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(parsed)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
