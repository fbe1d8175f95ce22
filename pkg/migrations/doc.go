// Package migrations holds the built-in wallet state transforms.
//
// Each transform lives in its own file named after the version it upgrades to
// and is listed in Registry. New transforms are appended; released ones are
// never edited.
package migrations
