/*
Package migration implements the versioned transform registry and the runner
that applies it to a persisted state.

A Registry is an ordered catalogue of Transforms, each upgrading a state to
exactly one target version. The Runner reads the state's recorded version,
applies every pending transform in ascending order and records each target
version as it goes. It halts at the first failing transform and reports which
step failed; nothing beyond that step is applied.

	reg, err := migration.NewRegistry(
		migration.Transform{Version: 76, Name: "advanced-gas-fee-by-chain", Migrate: fn},
	)
	if err != nil {
		return err
	}
	res, err := migration.NewRunner(reg).Run(ctx, state)

Ambient values a transform needs, such as the active chain identifier, are
resolved by the runner and passed in through Env rather than looked up by the
transform itself.
*/
package migration
