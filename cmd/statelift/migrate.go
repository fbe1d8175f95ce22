package main

import (
	"github.com/aretw0/statelift/internal/cli"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [state-id...]",
	Short: "Apply pending transforms to stored states",
	Long: `Loads each state, applies every transform above its recorded version and
saves the result. A state whose run fails is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		to, _ := cmd.Flags().GetInt("to")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		jsonOut, _ := cmd.Flags().GetBool("json")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunMigrate(ctx, app, cmd.OutOrStdout(), cli.MigrateOptions{
			IDs:         args,
			All:         all,
			Target:      to,
			DryRun:      dryRun,
			Concurrency: concurrency,
			JSON:        jsonOut,
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("all", false, "Migrate every stored state")
	migrateCmd.Flags().Int("to", 0, "Stop at this version (default: newest)")
	migrateCmd.Flags().Bool("dry-run", false, "Report what would change without saving")
	migrateCmd.Flags().IntP("concurrency", "c", 4, "States migrated in parallel")
	migrateCmd.Flags().Bool("json", false, "Print the run summary as JSON")
}
