// Package media reads properties of media files without decoding them in
// full. It is used to record image dimensions when a file is ingested.
package media
