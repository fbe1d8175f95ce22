package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/statelift"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version number of statelift",
	Annotations: map[string]string{"standalone": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "statelift version %s\n", strings.TrimSpace(statelift.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
