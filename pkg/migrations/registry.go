package migrations

import "github.com/aretw0/statelift/pkg/migration"

var builtin = migration.MustRegistry(
	migration.Transform{
		Version:     76,
		Name:        "advanced-gas-fee-by-chain",
		Description: "Key PreferencesController.advancedGasFee by the active chain identifier",
		Migrate:     migrateTo76,
	},
)

// Registry returns the built-in transforms.
func Registry() *migration.Registry {
	return builtin
}

// Latest returns the newest built-in version.
func Latest() int {
	return builtin.Latest()
}
