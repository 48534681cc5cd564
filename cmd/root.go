package cmd

import (
	"os"

	"github.com/klokku/calsync/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "calsync",
	Short: "Synchronizes Google calendars into a local calendar store",
	Long: `calsync lists Google calendars, fetches the events of each of them and
stores them in a local PostgreSQL calendar store.

It can run as:
  - A long running service with an HTTP API and an optional sync schedule (serve)
  - A one-shot fresh sync (sync)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calsync version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML configuration file")
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newVersionCmd())
}
