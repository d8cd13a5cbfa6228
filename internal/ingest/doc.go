// Package ingest copies a source file into a media collection using a staged
// write: the entry is created pending, filled, flushed and only then
// published. A failure at any step leaves the entry pending, so readers of
// the collection never see a partial file.
//
// Every failure is reported as an *Error carrying an ErrorKind. Message turns
// an error into the human-readable text sent back to callers.
package ingest
