package thumbnail

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

// Thumbnails fit inside this box. Smaller images are not enlarged.
const (
	MaxWidth  = 200
	MaxHeight = 200
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatFor picks the encoder for a thumbnail, preferring the content type and
// falling back to the file extension.
func FormatFor(contentType, name string) (imaging.Format, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mediaType {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return imaging.JPEG, nil
	case "image/png":
		return imaging.PNG, nil
	case "image/gif":
		return imaging.GIF, nil
	case "image/tiff":
		return imaging.TIFF, nil
	case "image/bmp", "image/x-ms-bmp":
		return imaging.BMP, nil
	}
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, contentType, name)
	}
	return format, nil
}

// Resize decodes src, applies the EXIF orientation, fits the result inside
// MaxWidth x MaxHeight and encodes it to dst.
func Resize(dst io.Writer, src io.Reader, format imaging.Format) error {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
	if err := imaging.Encode(dst, thumb, format); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}
