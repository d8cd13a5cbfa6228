// Package sweeper removes gallery entries that stayed pending too long.
//
// A save that fails after its entry was created leaves that entry pending.
// The sweeper periodically deletes pending entries (row and staged bytes)
// older than a TTL, and staging files that no entry refers to. The time of
// the last sweep is stored in the catalog so a restart does not sweep again
// before the interval has passed.
package sweeper
