package main

import (
	"fmt"
	"os"

	"github.com/aretw0/statelift/internal/cli"
	"github.com/spf13/cobra"
)

// app is wired by the root PersistentPreRunE for commands that need it.
var app *cli.App

var rootCmd = &cobra.Command{
	Use:   "statelift",
	Short: "statelift upgrades persisted wallet state through versioned transforms",
	Long: `statelift keeps an ordered registry of state transforms and applies the
pending ones to stored wallet documents, writing the upgraded document back
only when every step succeeded.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["standalone"] == "true" {
			return nil
		}
		configPath, _ := cmd.Flags().GetString("config")
		backend, _ := cmd.Flags().GetString("store")
		dir, _ := cmd.Flags().GetString("dir")
		debug, _ := cmd.Flags().GetBool("debug")

		var err error
		app, err = cli.NewApp(cli.Options{
			ConfigPath: configPath,
			Backend:    backend,
			Dir:        dir,
			Debug:      debug,
		})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		return app.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default ./statelift.yaml)")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory, file, redis or sqlite")
	rootCmd.PersistentFlags().String("dir", "", "Directory of the file store")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}
