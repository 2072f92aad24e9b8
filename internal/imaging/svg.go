package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// svgSniffLimit bounds how far into the payload the SVG detection looks.
const svgSniffLimit = 4096

// svgDefaultRenderSize is used when an SVG declares no usable viewBox. Ten
// times the canonical edge keeps strokes smooth after downscaling.
const svgDefaultRenderSize = 10 * CanonicalWidth

// isSVGData detects SVG content by looking for an <svg> tag in the initial
// portion of the data.
func isSVGData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	n := len(data)
	if n > svgSniffLimit {
		n = svgSniffLimit
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg"))
}

// renderSVG rasterizes an SVG onto a white canvas at its declared size, or at
// svgDefaultRenderSize when the document carries no dimensions.
func renderSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	width := int(icon.ViewBox.W)
	height := int(icon.ViewBox.H)
	if width <= 0 || height <= 0 {
		width = svgDefaultRenderSize
		height = svgDefaultRenderSize
	}

	icon.SetTarget(0, 0, float64(width), float64(height))

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1.0)

	return dst, nil
}
