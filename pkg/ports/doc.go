/*
Package ports defines the driven ports (interfaces) for the statelift engine.

These interfaces decouple the migration core from external implementations,
allowing persisted wallet states to live in memory, on disk, in Redis or in
SQLite without the runner knowing.

# Key Interfaces

  - StateStore: Responsible for persisting and loading wallet states by ID.
  - DistributedLocker: Provides distributed locking so only one migration pass
    touches a state at a time across replicas.
*/
package ports
