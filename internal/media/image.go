package media

import (
	"errors"
	"fmt"
	"image"

	"gallery-ingest/internal/filesystem"
	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/mediatypes"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support
)

// ErrNotImage is returned when dimensions are requested for a non-image.
var ErrNotImage = errors.New("not an image")

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image.
// HEIC/HEIF have no registered decoder and return image.ErrFormat.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// ProbeDimensions returns the width and height of the image at path. The
// kind is taken from the extension of name, which may differ from path.
func ProbeDimensions(path, name string) (width, height int, err error) {
	ext := mediatypes.ExtensionOf(name)
	if mediatypes.Classify(ext) != mediatypes.KindImage {
		return 0, 0, fmt.Errorf("%s: %w", name, ErrNotImage)
	}

	dims, err := GetImageDimensions(path)
	if err != nil {
		return 0, 0, err
	}
	return dims.Width, dims.Height, nil
}
