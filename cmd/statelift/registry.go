package main

import (
	"github.com/aretw0/statelift/internal/cli"
	"github.com/spf13/cobra"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "List registered transforms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.PrintRegistry(app, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(registryCmd)
}
