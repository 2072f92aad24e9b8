package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Canonical sample dimensions. Every stored digit is exactly this size.
const (
	CanonicalWidth  = 28
	CanonicalHeight = 28
)

// ErrUndecodable indicates the uploaded bytes are not a supported image format.
var ErrUndecodable = errors.New("image data could not be decoded")

// Normalize converts arbitrary uploaded image data into the canonical sample
// form: 8-bit grayscale, 28x28 pixels, PNG encoded. Color images are converted
// to grayscale first, then scaled with bilinear interpolation so thin strokes
// survive the downsampling.
func Normalize(data []byte) ([]byte, error) {
	slog.Debug("normalizing image", "input_size_bytes", len(data))

	img, err := decode(data)
	if err != nil {
		slog.Error("failed to decode uploaded image", "error", err)
		return nil, err
	}

	gray := toGray(img)
	bounds := gray.Bounds()
	if bounds.Dx() != CanonicalWidth || bounds.Dy() != CanonicalHeight {
		slog.Debug("resizing image to canonical dimensions",
			"orig_width", bounds.Dx(),
			"orig_height", bounds.Dy())
		gray = resize(gray, CanonicalWidth, CanonicalHeight)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		slog.Error("failed to encode normalized image", "error", err)
		return nil, fmt.Errorf("failed to encode normalized image: %w", err)
	}

	slog.Debug("image normalized", "output_size_bytes", buf.Len())
	return buf.Bytes(), nil
}

// GrayPixels returns the raw 8-bit pixel values of a canonical sample in
// row-major order, CanonicalWidth*CanonicalHeight bytes total. It errors on
// data that is not a canonical sample.
func GrayPixels(data []byte) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() != CanonicalWidth || bounds.Dy() != CanonicalHeight {
		return nil, fmt.Errorf("expected %dx%d sample, got %dx%d",
			CanonicalWidth, CanonicalHeight, bounds.Dx(), bounds.Dy())
	}

	gray := toGray(img)
	pixels := make([]byte, 0, CanonicalWidth*CanonicalHeight)
	for y := 0; y < CanonicalHeight; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+CanonicalWidth]
		pixels = append(pixels, row...)
	}
	return pixels, nil
}

// decode routes SVG input to the vector rasterizer and everything else to the
// registered raster decoders.
func decode(data []byte) (image.Image, error) {
	if isSVGData(data) {
		return renderSVG(data)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, nil
}

func toGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	return gray
}

func resize(src *image.Gray, width, height int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
