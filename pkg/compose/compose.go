// Package compose implements deterministic raster composition for the
// applyOverlay flow and mask construction for AI-mediated blends. Nothing
// here calls a model; the only failure modes are structural (undecodable
// bytes, empty dimensions).
package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
)

// Decode decodes PNG, JPEG, or GIF bytes into an image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("compose: decode image: %w", err)
	}
	return img, nil
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("compose: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Dimensions returns the pixel width and height of encoded image bytes.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("compose: decode config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// PaintAt paints overlay onto base at pixel offset (dx, dy) and returns the
// result as PNG. Pixels of the base outside the overlay's footprint are
// unchanged. The overlay's alpha channel is respected.
func PaintAt(base, overlay []byte, dx, dy int) ([]byte, error) {
	baseImg, err := Decode(base)
	if err != nil {
		return nil, fmt.Errorf("compose: base: %w", err)
	}

	overlayImg, err := Decode(overlay)
	if err != nil {
		return nil, fmt.Errorf("compose: overlay: %w", err)
	}

	out := image.NewRGBA(baseImg.Bounds())
	draw.Draw(out, out.Bounds(), baseImg, baseImg.Bounds().Min, draw.Src)

	target := overlayImg.Bounds().Add(image.Pt(dx, dy)).Sub(overlayImg.Bounds().Min)
	draw.Draw(out, target, overlayImg, overlayImg.Bounds().Min, draw.Over)

	return EncodePNG(out)
}

// WhiteMask returns a w×h all-white PNG. A full-coverage mask tells the
// inpainting model the whole image may change.
func WhiteMask(w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("compose: invalid mask size %dx%d", w, h)
	}

	mask := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(mask, mask.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	return EncodePNG(mask)
}
