// Command gallery-save copies a single file into the gallery without the
// HTTP service.
//
// Usage:
//
//	gallery-save <file> <album> <name>
//
// The file is stored as DCIM/<album>/<name>.<ext>, where ext is the
// lower-cased extension of <file>. The gallery is locked while the command
// runs, so it fails fast if the service is using the same gallery.
//
// When stdout is a terminal a short summary is printed. Otherwise the
// result is printed in the callback wire format:
//
//	<requestId>|<true|false>|<resultPath>|<message>
//
// The exit status is 0 on success, 1 when the save fails and 2 on usage
// errors.
//
// Environment:
//
//	GALLERY_DIR  - Gallery root (default: /gallery)
//	DATABASE_DIR - Path to database directory (default: /database)
//	API_LEVEL    - Platform API level (default: 33)
package main
