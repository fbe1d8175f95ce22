/*
Package declarative compiles transforms described in YAML files.

A file named "077_drop_legacy_flag.yaml" holds one transform:

	version: 77            # optional, defaults to the filename prefix
	name: drop-legacy-flag # optional, defaults to the filename remainder
	description: Remove the legacy onboarding flag
	steps:
	  - op: delete
	    path: OnboardingController.legacyFlag
	  - op: key_by_chain
	    path: PreferencesController.customRpcSettings
	    when: chainId != ""

Supported ops are set, delete, move and key_by_chain. Paths are dot-separated
object keys under the state's data. The optional "when" expression is evaluated
with expr-lang against data, chainId and version; the step is skipped when it
evaluates to false.
*/
package declarative
