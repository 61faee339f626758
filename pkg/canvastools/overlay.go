package canvastools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/germanamz/easel/pkg/compose"
)

type applyOverlayInput struct {
	BaseShapeID    string `json:"baseShapeId"`
	OverlayShapeID string `json:"overlayShapeId"`
}

// handleApplyOverlay paints the overlay shape's pixels onto the base
// shape's asset at the overlay's current canvas position, then removes the
// overlay shape. Purely deterministic; no model call.
func (t *Tools) handleApplyOverlay(_ context.Context, input json.RawMessage) (string, error) {
	var in applyOverlayInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid applyOverlay input: %w", err)
	}

	base, baseAsset, err := t.resolveBase(in.BaseShapeID)
	if err != nil {
		return "", err
	}
	overlay, overlayAsset, err := t.resolveOverlay(base, in.OverlayShapeID)
	if err != nil {
		return "", err
	}

	baseW, _, err := compose.Dimensions(baseAsset.Data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", base.ID, err)
	}

	// Page coordinates and pixel coordinates differ by the base shape's
	// display scale. Offsets are computed in pixels of the base image.
	scale := 1.0
	if base.Bounds.W > 0 {
		scale = float64(baseW) / base.Bounds.W
	}
	dx := int(math.Round((overlay.Bounds.X - base.Bounds.X) * scale))
	dy := int(math.Round((overlay.Bounds.Y - base.Bounds.Y) * scale))

	merged, err := compose.PaintAt(baseAsset.Data, overlayAsset.Data, dx, dy)
	if err != nil {
		return "", fmt.Errorf("paint overlay: %w", err)
	}

	if err := t.doc.UpdateAsset(base.ID, merged, "image/png"); err != nil {
		return "", err
	}
	if err := t.doc.DeleteShape(overlay.ID); err != nil {
		return "", err
	}
	_ = t.doc.SetSelection(base.ID)

	return fmt.Sprintf("Painted %s onto %s and removed the overlay shape.", overlay.ID, base.ID), nil
}

type composeAIInput struct {
	Prompt         string `json:"prompt"`
	BaseShapeID    string `json:"baseShapeId"`
	OverlayShapeID string `json:"overlayShapeId"`
}

// handleComposeAI blends the overlay into the base with a prompt-guided
// edit. The overlay shape is kept; only the base's pixels change.
func (t *Tools) handleComposeAI(ctx context.Context, input json.RawMessage) (string, error) {
	var in composeAIInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid composeAI input: %w", err)
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return "", fmt.Errorf("composeAI requires a prompt")
	}

	base, baseAsset, err := t.resolveBase(in.BaseShapeID)
	if err != nil {
		return "", err
	}
	overlay, overlayAsset, err := t.resolveOverlay(base, in.OverlayShapeID)
	if err != nil {
		return "", err
	}

	w, h, err := compose.Dimensions(baseAsset.Data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", base.ID, err)
	}
	mask, err := compose.WhiteMask(w, h)
	if err != nil {
		return "", err
	}

	out, err := t.gen.EditImage(ctx, baseAsset.Data, mask, in.Prompt, overlayAsset.Data)
	if err != nil {
		return "", err
	}

	if err := t.doc.UpdateAsset(base.ID, out, "image/png"); err != nil {
		return "", err
	}
	_ = t.doc.SetSelection(base.ID)

	return fmt.Sprintf("Blended %s into %s.", overlay.ID, base.ID), nil
}
