// Package gallery implements the managed media collection that ingested files
// are published into.
//
// A gallery is a directory tree plus a catalog. Entries are created pending:
// their bytes are written to a hidden staging directory under the gallery
// root and the catalog row is excluded from every browsing query. Publish
// moves the staged file to <root>/<relative path>/<display name> and clears
// the pending flag in one catalog transaction. Entries that are never
// published stay pending until removed.
//
// Only one process may hold a gallery open at a time. Open takes an advisory
// lock on a file in the gallery root and fails with ErrLocked when another
// process holds it.
package gallery
