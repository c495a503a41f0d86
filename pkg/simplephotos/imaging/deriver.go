// Package imaging derives the fixed multi-resolution renditions of an
// uploaded photo. Derivation is pure: bytes in, encoded buffers out, no I/O.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	// Accepted input formats. Decoding re-rasterizes the image, which also
	// strips EXIF and any other embedded metadata.
	_ "image/gif"
	_ "image/png"

	"github.com/nfnt/resize"
)

// ErrDecode indicates the input bytes are not a recognizable raster image.
var ErrDecode = errors.New("unrecognized or corrupt image data")

// Spec describes one rendition to derive: its square pixel dimension and
// JPEG quality.
type Spec struct {
	Name    string
	Size    int
	Quality int
}

// Derive decodes raw and produces one encoded JPEG buffer per spec, keyed by
// spec name. Each rendition is the largest centered square of the source,
// resized to the spec dimension with Lanczos resampling.
//
// Either every spec succeeds or an error is returned; partial sets are never
// produced.
func Derive(raw []byte, specs []Spec) (map[string][]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	normalized := flatten(src)
	square := centerSquare(normalized)

	out := make(map[string][]byte, len(specs))
	for _, spec := range specs {
		resized := resize.Resize(uint(spec.Size), uint(spec.Size), square, resize.Lanczos3)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: spec.Quality}); err != nil {
			return nil, fmt.Errorf("encode %s: %w", spec.Name, err)
		}
		out[spec.Name] = buf.Bytes()
	}

	return out, nil
}

// flatten composites the source onto an opaque white background, converting
// any color mode (alpha-bearing, paletted, CMYK) to plain RGB in one pass.
func flatten(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	return dst
}

// centerSquare crops the largest centered square from img.
func centerSquare(img *image.RGBA) *image.RGBA {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	side := width
	if height < side {
		side = height
	}

	left := bounds.Min.X + (width-side)/2
	top := bounds.Min.Y + (height-side)/2

	return img.SubImage(image.Rect(left, top, left+side, top+side)).(*image.RGBA)
}
