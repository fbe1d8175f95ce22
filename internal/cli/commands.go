package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/statelift/internal/presentation/tui"
	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/persistence/middleware"
	"github.com/aretw0/statelift/pkg/vault"
)

// MigrateOptions contains the flags of the migrate command.
type MigrateOptions struct {
	IDs         []string
	All         bool
	Target      int
	DryRun      bool
	Concurrency int
	JSON        bool
}

// RunMigrate migrates the selected states and prints one line per state.
// The returned error joins every per-state failure.
func RunMigrate(ctx context.Context, app *App, w io.Writer, opts MigrateOptions) error {
	if opts.All == (len(opts.IDs) > 0) {
		return errors.New("specify either state IDs or --all")
	}

	migrateOpts := []vault.MigrateOption{vault.DryRun(opts.DryRun)}
	if opts.Target > 0 {
		migrateOpts = append(migrateOpts, vault.WithTarget(opts.Target))
	}

	var (
		summary *vault.Summary
		err     error
	)
	if opts.All {
		summary, err = app.Manager.MigrateAll(ctx, opts.Concurrency, migrateOpts...)
	} else {
		summary, err = app.Manager.MigrateIDs(ctx, opts.IDs, opts.Concurrency, migrateOpts...)
	}
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
		return summary.Err()
	}

	p := tui.NewPrinter(w)
	for _, r := range summary.Reports {
		printReport(p, r)
	}
	if len(summary.Reports) == 0 {
		fmt.Fprintln(w, "No states found.")
	}
	return summary.Err()
}

func printReport(p *tui.Printer, r *vault.Report) {
	switch {
	case r.Err != nil:
		p.Fail("%s: %v", r.ID, r.Err)
		if r.Result != nil && r.Result.Changed() {
			p.Faint("reached %d before failing; nothing written", r.Result.ToVersion)
		}
		return
	case !r.Result.Changed():
		p.Info("%s: already at version %d", r.ID, r.Result.ToVersion)
		return
	case r.DryRun:
		p.Warn("%s: would migrate %d -> %d (dry run)", r.ID, r.Result.FromVersion, r.Result.ToVersion)
	default:
		p.Success("%s: migrated %d -> %d", r.ID, r.Result.FromVersion, r.Result.ToVersion)
	}
	p.Faint("applied %s", joinInts(r.Result.Applied))
	if r.Diff != nil {
		for _, line := range diffLines(r.Diff) {
			p.Faint("%s", line)
		}
	}
}

func diffLines(d *domain.StateDiff) []string {
	var out []string
	if len(d.Added) > 0 {
		out = append(out, "added: "+strings.Join(d.Added, ", "))
	}
	if len(d.Changed) > 0 {
		out = append(out, "changed: "+strings.Join(d.Changed, ", "))
	}
	if len(d.Removed) > 0 {
		out = append(out, "removed: "+strings.Join(d.Removed, ", "))
	}
	return out
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

// Inspect prints the stored state as indented JSON.
func Inspect(ctx context.Context, app *App, w io.Writer, id string) error {
	return app.Manager.Export(ctx, id, w, nil)
}

// List prints every stored state ID with its version.
func List(ctx context.Context, app *App, w io.Writer) error {
	ids, err := app.Manager.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing states: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No states found.")
		return nil
	}

	latest := app.Engine.Latest()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVERSION\tSTATUS")
	for _, id := range ids {
		state, err := app.Manager.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t?\t%v\n", id, err)
			continue
		}
		status := "current"
		if state.Meta.Version < latest {
			status = "pending"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", id, state.Meta.Version, status)
	}
	return tw.Flush()
}

// ListPending prints the IDs of states that still have transforms to apply.
func ListPending(ctx context.Context, app *App, w io.Writer) error {
	ids, err := app.Manager.Pending(ctx)
	if err != nil {
		return fmt.Errorf("error listing pending states: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// Remove deletes the given states. It keeps going after a failure.
func Remove(ctx context.Context, app *App, w io.Writer, ids []string) error {
	p := tui.NewPrinter(w)
	var errs []error
	for _, id := range ids {
		if err := app.Manager.Delete(ctx, id); err != nil {
			p.Fail("Error removing '%s': %v", id, err)
			errs = append(errs, err)
			continue
		}
		p.Success("Removed state '%s'", id)
	}
	return errors.Join(errs...)
}

// Import stores the document read from r under id. With redact set, values
// of keys matching the configured patterns are masked before they are stored.
func Import(ctx context.Context, app *App, w io.Writer, id string, r io.Reader, redact bool) error {
	var mask func(*domain.State) *domain.State
	if redact {
		redactor, err := middleware.NewRedactor(app.Config.Redact)
		if err != nil {
			return err
		}
		mask = redactor.Apply
	}

	state, err := app.Manager.Import(ctx, id, r, mask)
	if err != nil {
		return err
	}
	tui.NewPrinter(w).Success("Imported '%s' at version %d", id, state.Meta.Version)
	return nil
}

// Export writes the stored state as JSON, masked when redact is set.
func Export(ctx context.Context, app *App, w io.Writer, id string, redact bool) error {
	var mask func(*domain.State) *domain.State
	if redact {
		r, err := middleware.NewRedactor(app.Config.Redact)
		if err != nil {
			return err
		}
		mask = r.Apply
	}
	return app.Manager.Export(ctx, id, w, mask)
}

// PrintRegistry lists the registered transforms.
func PrintRegistry(app *App, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tDESCRIPTION")
	for _, t := range app.Engine.Registry().Transforms() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", t.Version, t.Name, t.Description)
	}
	return tw.Flush()
}
