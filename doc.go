/*
Package statelift upgrades persisted wallet state through an ordered series of
versioned transforms.

A persisted state is a JSON document of the form

	{"meta": {"version": 75}, "data": {"PreferencesController": {...}, ...}}

where data maps controller names to arbitrary structures. Each transform is
registered under the version it produces; the runner applies, in ascending
order, every transform whose version is above the one recorded in meta, sets
meta.version after each step and stops at the first failure.

# Layout

  - pkg/domain: the State document, typed field access and errors.
  - pkg/migration: Registry and Runner.
  - pkg/migrations: built-in transforms.
  - pkg/migration/declarative: transforms described in YAML files.
  - pkg/vault: locked load/migrate/save against a StateStore.
  - pkg/adapters: memory, file, redis and sqlite stores; the HTTP API.

# Usage

	engine, err := statelift.New(statelift.WithTransformsDir("./transforms"))
	if err != nil {
		log.Fatal(err)
	}
	res, err := engine.Migrate(ctx, state)
*/
package statelift
