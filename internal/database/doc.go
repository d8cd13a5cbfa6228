// Package database is the SQLite catalog behind the gallery.
//
// Each row of media_entries describes one gallery entry: its collection
// (images or videos), display name, MIME type, relative storage path and
// capture time. Rows are inserted with is_pending = 1 and flipped to 0 by
// PublishEntry, which is the commit point of a staged write. Browsing
// queries (ListEntries with the default filter, GetStats visible counts)
// never return pending rows.
//
// Display names are unique per collection and relative path. InsertEntry
// resolves clashes by appending " (n)" before the extension.
//
// The database uses WAL mode and a busy timeout so that the HTTP readers do
// not block the single writer.
package database
