package thumbnail

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeFitsInsideBoundingBox(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		format       imaging.Format
		wantW, wantH int
	}{
		{name: "landscape", w: 800, h: 400, format: imaging.PNG, wantW: 200, wantH: 100},
		{name: "portrait", w: 1000, h: 3000, format: imaging.JPEG, wantW: 67, wantH: 200},
		{name: "square", w: 640, h: 640, format: imaging.GIF, wantW: 200, wantH: 200},
		{name: "small is not enlarged", w: 50, h: 30, format: imaging.PNG, wantW: 50, wantH: 30},
		{name: "exact box", w: 200, h: 120, format: imaging.BMP, wantW: 200, wantH: 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := encodeTestImage(t, tt.w, tt.h, tt.format)
			var dst bytes.Buffer
			require.NoError(t, Resize(&dst, bytes.NewReader(src), tt.format))

			cfg := decodeConfig(t, dst.Bytes())
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
			assert.LessOrEqual(t, cfg.Width, MaxWidth)
			assert.LessOrEqual(t, cfg.Height, MaxHeight)
		})
	}
}

// withOrientation inserts a minimal big-endian EXIF APP1 segment carrying the
// given orientation right after the JPEG SOI marker.
func withOrientation(t *testing.T, jpegData []byte, orientation uint16) []byte {
	t.Helper()
	require.True(t, len(jpegData) > 2 && jpegData[0] == 0xff && jpegData[1] == 0xd8)

	var exif bytes.Buffer
	exif.WriteString("Exif\x00\x00")
	exif.WriteString("MM")
	binary.Write(&exif, binary.BigEndian, uint16(0x002a))
	binary.Write(&exif, binary.BigEndian, uint32(8))
	binary.Write(&exif, binary.BigEndian, uint16(1))
	binary.Write(&exif, binary.BigEndian, uint16(0x0112))
	binary.Write(&exif, binary.BigEndian, uint16(3))
	binary.Write(&exif, binary.BigEndian, uint32(1))
	binary.Write(&exif, binary.BigEndian, orientation)
	binary.Write(&exif, binary.BigEndian, uint16(0))
	binary.Write(&exif, binary.BigEndian, uint32(0))

	var out bytes.Buffer
	out.Write(jpegData[:2])
	out.Write([]byte{0xff, 0xe1})
	binary.Write(&out, binary.BigEndian, uint16(exif.Len()+2))
	out.Write(exif.Bytes())
	out.Write(jpegData[2:])
	return out.Bytes()
}

func TestResizeAppliesExifOrientation(t *testing.T) {
	src := withOrientation(t, encodeTestImage(t, 400, 100, imaging.JPEG), 6)

	var dst bytes.Buffer
	require.NoError(t, Resize(&dst, bytes.NewReader(src), imaging.JPEG))

	cfg := decodeConfig(t, dst.Bytes())
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestResizeIgnoresNormalOrientation(t *testing.T) {
	src := withOrientation(t, encodeTestImage(t, 400, 100, imaging.JPEG), 1)

	var dst bytes.Buffer
	require.NoError(t, Resize(&dst, bytes.NewReader(src), imaging.JPEG))

	cfg := decodeConfig(t, dst.Bytes())
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestResizeRejectsGarbage(t *testing.T) {
	var dst bytes.Buffer
	err := Resize(&dst, bytes.NewReader([]byte("nope")), imaging.PNG)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode image")
	assert.Zero(t, dst.Len())
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		contentType string
		name        string
		want        imaging.Format
	}{
		{"image/jpeg", "a.bin", imaging.JPEG},
		{"image/JPEG; charset=binary", "a", imaging.JPEG},
		{"image/png", "a.jpg", imaging.PNG},
		{"image/gif", "a", imaging.GIF},
		{"image/tiff", "a", imaging.TIFF},
		{"image/bmp", "a", imaging.BMP},
		{"image/x-custom", "photo.jpeg", imaging.JPEG},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.contentType, tt.name)
		require.NoError(t, err, tt.contentType)
		assert.Equal(t, tt.want, got, tt.contentType)
	}

	_, err := FormatFor("image/webp", "a.webp")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
