/*
Package domain contains the core models of the statelift migration engine.

It defines the persisted wallet state document, the typed field helpers
transforms use to read it, the error vocabulary shared by the runner and the
storage adapters, and the structural diff reported by dry runs. This package is
kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - State: the persisted document, {"meta":{"version":N},"data":{...}}.
  - Meta: bookkeeping fields; Version is the last applied transform.
  - StateDiff: controllers added, changed or removed between two states.
  - MigrationError: the failure of a single version step.
*/
package domain
