/*
Package vault orchestrates access to stored wallet states.

A Manager serialises every operation on a state ID through a reference-counted
in-process mutex and, when configured, a distributed lock, so a migration pass
always has exclusive access to the state it rewrites. Distinct IDs proceed in
parallel.
*/
package vault
