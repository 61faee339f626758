package canvastools

import (
	"errors"
	"fmt"

	"github.com/germanamz/easel/pkg/canvas"
	"github.com/germanamz/easel/pkg/compose"
)

// ErrNoTarget is returned when a tool needs an image but neither the
// arguments, the chat attachments, nor the canvas selection name one.
// The canvas is left untouched.
var ErrNoTarget = errors.New("no image selected: attach an image to the chat or select an image shape first")

// ErrNoOverlay is returned when a two-image tool cannot find a second,
// distinct image to use as the overlay.
var ErrNoOverlay = errors.New("no overlay image: attach or select a second image")

// resolveBase finds the image shape a tool should operate on. Precedence:
// an explicit shape ID from the arguments, then the shape behind the most
// recently attached chat image, then the selected image shape.
func (t *Tools) resolveBase(explicitID string) (canvas.Shape, canvas.Asset, error) {
	if explicitID != "" {
		s, ok := t.doc.Shape(explicitID)
		if !ok {
			return canvas.Shape{}, canvas.Asset{}, fmt.Errorf("%w: %s", canvas.ErrShapeNotFound, explicitID)
		}
		if s.Kind != canvas.KindImage {
			return canvas.Shape{}, canvas.Asset{}, fmt.Errorf("%w: %s", canvas.ErrNotImage, explicitID)
		}
		a, err := t.doc.ShapeAsset(s.ID)
		if err != nil {
			return canvas.Shape{}, canvas.Asset{}, err
		}
		return s, a, nil
	}

	atts := t.sctx.Attachments()
	for i := len(atts) - 1; i >= 0; i-- {
		if atts[i].ShapeID == "" {
			continue
		}
		if s, ok := t.doc.Shape(atts[i].ShapeID); ok && s.Kind == canvas.KindImage {
			a, err := t.doc.ShapeAsset(s.ID)
			if err == nil {
				return s, a, nil
			}
		}
	}

	if selected := t.doc.SelectedByKind(canvas.KindImage); len(selected) > 0 {
		s := selected[0]
		a, err := t.doc.ShapeAsset(s.ID)
		if err != nil {
			return canvas.Shape{}, canvas.Asset{}, err
		}
		return s, a, nil
	}

	return canvas.Shape{}, canvas.Asset{}, ErrNoTarget
}

// resolveOverlay finds a second image, distinct from base, for two-image
// tools. Precedence mirrors resolveBase: explicit ID, then the newest chat
// attachment from a different shape, then another selected image.
func (t *Tools) resolveOverlay(base canvas.Shape, explicitID string) (canvas.Shape, canvas.Asset, error) {
	if explicitID != "" {
		s, ok := t.doc.Shape(explicitID)
		if !ok {
			return canvas.Shape{}, canvas.Asset{}, fmt.Errorf("%w: %s", canvas.ErrShapeNotFound, explicitID)
		}
		if s.Kind != canvas.KindImage {
			return canvas.Shape{}, canvas.Asset{}, fmt.Errorf("%w: %s", canvas.ErrNotImage, explicitID)
		}
		a, err := t.doc.ShapeAsset(s.ID)
		if err != nil {
			return canvas.Shape{}, canvas.Asset{}, err
		}
		return s, a, nil
	}

	if att, ok := t.sctx.OverlayFor(base.ID); ok && att.ShapeID != "" {
		if s, ok := t.doc.Shape(att.ShapeID); ok && s.Kind == canvas.KindImage {
			a, err := t.doc.ShapeAsset(s.ID)
			if err == nil {
				return s, a, nil
			}
		}
	}

	for _, s := range t.doc.SelectedByKind(canvas.KindImage) {
		if s.ID == base.ID {
			continue
		}
		a, err := t.doc.ShapeAsset(s.ID)
		if err != nil {
			return canvas.Shape{}, canvas.Asset{}, err
		}
		return s, a, nil
	}

	return canvas.Shape{}, canvas.Asset{}, ErrNoOverlay
}

const placementGap = 40

// nextPlacement returns the bounds for the i-th new shape of a batch,
// placed in a row to the right of everything already on the page.
func (t *Tools) nextPlacement(i int, w, h float64) canvas.Rect {
	page := t.doc.PageBounds()

	x := page.X + page.W + placementGap + float64(i)*(w+placementGap)
	y := page.Y
	if page.W == 0 && page.H == 0 {
		x = float64(i) * (w + placementGap)
		y = 0
	}

	return canvas.Rect{X: x, Y: y, W: w, H: h}
}

// shapeSize derives page dimensions for generated media. Undecodable data
// falls back to a square default.
func shapeSize(data []byte) (float64, float64) {
	w, h, err := compose.Dimensions(data)
	if err != nil || w <= 0 || h <= 0 {
		return 512, 512
	}
	return float64(w), float64(h)
}

// connectSources draws connectors from the generation's inputs (selected
// text shapes and the reference image's shape, when it is on the canvas)
// to each result.
func (t *Tools) connectSources(refShapeID string, resultIDs []string) {
	var sources []string
	for _, s := range t.doc.SelectedByKind(canvas.KindText) {
		sources = append(sources, s.ID)
	}
	if refShapeID != "" {
		if _, ok := t.doc.Shape(refShapeID); ok {
			sources = append(sources, refShapeID)
		}
	}

	for _, from := range sources {
		for _, to := range resultIDs {
			_ = t.doc.Connect(from, to)
		}
	}
}
