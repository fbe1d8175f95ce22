package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/statelift/internal/cli"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored states and their versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pending, _ := cmd.Flags().GetBool("pending"); pending {
			return cli.ListPending(cmd.Context(), app, cmd.OutOrStdout())
		}
		return cli.List(cmd.Context(), app, cmd.OutOrStdout())
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <state-id>",
	Short: "Print a stored state as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Inspect(cmd.Context(), app, cmd.OutOrStdout(), args[0])
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <state-id>...",
	Short: "Remove one or more states",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Remove(cmd.Context(), app, cmd.OutOrStdout(), args)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <state-id> <file|->",
	Short: "Store a JSON state document under an ID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		redact, _ := cmd.Flags().GetBool("redact")

		var in io.Reader = cmd.InOrStdin()
		if args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[1], err)
			}
			defer f.Close()
			in = f
		}
		return cli.Import(cmd.Context(), app, cmd.OutOrStdout(), args[0], in, redact)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <state-id>",
	Short: "Write a stored state as JSON to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		redact, _ := cmd.Flags().GetBool("redact")
		return cli.Export(cmd.Context(), app, cmd.OutOrStdout(), args[0], redact)
	},
}

func init() {
	rootCmd.AddCommand(lsCmd, inspectCmd, rmCmd, importCmd, exportCmd)
	lsCmd.Flags().Bool("pending", false, "Print only the IDs of states with transforms left to apply")
	importCmd.Flags().Bool("redact", false, "Mask keys matching the configured redact patterns before storing")
	exportCmd.Flags().Bool("redact", false, "Mask keys matching the configured redact patterns")
}
