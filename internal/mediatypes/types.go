package mediatypes

import (
	"fmt"
	"strings"
)

// Kind is the media kind of a file, derived from its extension.
type Kind int

const (
	// KindUnknown is anything that is neither an image nor a video.
	KindUnknown Kind = iota
	// KindImage is a still image.
	KindImage
	// KindVideo is a video.
	KindVideo
)

// Collection identifies a gallery collection. Each supported kind is stored
// in its own collection.
type Collection string

const (
	// CollectionImages holds KindImage entries.
	CollectionImages Collection = "images"
	// CollectionVideos holds KindVideo entries.
	CollectionVideos Collection = "videos"
)

// OctetStream is the MIME type used when nothing better is known.
const OctetStream = "application/octet-stream"

// ImageExtensions is the fixed set of image extensions.
var ImageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"heic": true,
	"heif": true,
}

// VideoExtensions is the fixed set of video extensions.
var VideoExtensions = map[string]bool{
	"mp4":  true,
	"mov":  true,
	"avi":  true,
	"mkv":  true,
	"webm": true,
	"3gp":  true,
	"m4v":  true,
	"flv":  true,
}

// MimeTypes maps extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"heic": "image/heic",
	"heif": "image/heif",

	// Videos
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
	"3gp":  "video/3gpp",
	"m4v":  "video/x-m4v",
	"flv":  "video/x-flv",
}

// ExtensionOf returns the lowercase extension of name without the dot.
// The dot must sit after the first character and before the last one, so
// ".hidden" and "name." both yield "".
func ExtensionOf(name string) string {
	lastDot := strings.LastIndexByte(name, '.')
	if lastDot > 0 && lastDot < len(name)-1 {
		return strings.ToLower(name[lastDot+1:])
	}
	return ""
}

// Classify returns the Kind for an extension. Case is ignored.
func Classify(ext string) Kind {
	ext = strings.ToLower(ext)
	if ImageExtensions[ext] {
		return KindImage
	}
	if VideoExtensions[ext] {
		return KindVideo
	}
	return KindUnknown
}

// MimeOf returns the MIME type for an extension. Case is ignored.
func MimeOf(ext string) string {
	ext = strings.ToLower(ext)
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}

	switch Classify(ext) {
	case KindImage:
		return "image/*"
	case KindVideo:
		return "video/*"
	case KindUnknown:
		return OctetStream
	}
	return OctetStream
}

// Collection returns the gallery collection for k. ok is false for
// KindUnknown.
func (k Kind) Collection() (c Collection, ok bool) {
	switch k {
	case KindImage:
		return CollectionImages, true
	case KindVideo:
		return CollectionVideos, true
	case KindUnknown:
		return "", false
	}
	return "", false
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseCollection validates a collection name.
func ParseCollection(name string) (Collection, error) {
	switch c := Collection(strings.ToLower(name)); c {
	case CollectionImages, CollectionVideos:
		return c, nil
	default:
		return "", fmt.Errorf("unknown collection %q", name)
	}
}
