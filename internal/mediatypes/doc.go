// Package mediatypes classifies files for the gallery by extension.
//
// It is a dependency-free leaf package. Extensions are handled as bare
// lowercase tokens without the leading dot ("jpg", not ".jpg"):
//
//	ext := mediatypes.ExtensionOf("photo.JPG") // "jpg"
//	kind := mediatypes.Classify(ext)           // mediatypes.KindImage
//	mime := mediatypes.MimeOf(ext)             // "image/jpeg"
//
// # Kinds
//
// Kind is a closed set of three values. Callers switch over it exhaustively:
//
//	switch kind {
//	case mediatypes.KindImage:
//	case mediatypes.KindVideo:
//	case mediatypes.KindUnknown:
//	}
//
// Only KindImage and KindVideo map to a gallery collection; see
// Kind.Collection.
//
// # MIME Types
//
// MimeOf never fails. Extensions outside the explicit table fall back to a
// wildcard for their kind, or to application/octet-stream.
package mediatypes
