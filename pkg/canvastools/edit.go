package canvastools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const removeBackgroundInstruction = "Remove the background completely, keeping the main subject intact on a plain transparent background."

type editImageInput struct {
	Prompt string `json:"prompt"`
}

// handleEditImage does not run the edit itself. It opens the mask editor
// on the resolved target so the user confirms the region; the frontend
// submits the actual inpaint afterwards.
func (t *Tools) handleEditImage(ctx context.Context, input json.RawMessage) (string, error) {
	var in editImageInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid editImage input: %w", err)
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return "", fmt.Errorf("editImage requires a prompt")
	}

	id, err := t.openMaskFlow(ctx, in.Prompt)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Opened the mask editor on %s with the instruction %q. The user will confirm the region.", id, in.Prompt), nil
}

// openMaskFlow resolves the target the same way editImage does and hands it
// to the mask editor seeded with the instruction. The shorthand tools share
// this path so the user always confirms the region before pixels change.
func (t *Tools) openMaskFlow(ctx context.Context, instruction string) (string, error) {
	base, _, err := t.resolveBase("")
	if err != nil {
		return "", err
	}

	var overlay []byte
	if att, ok := t.sctx.OverlayFor(base.ID); ok {
		overlay = att.Data
	}

	if err := t.editor.OpenMaskEditor(ctx, base.ID, instruction, overlay); err != nil {
		return "", fmt.Errorf("open mask editor: %w", err)
	}

	return base.ID, nil
}

func (t *Tools) handleRemoveBackground(ctx context.Context, _ json.RawMessage) (string, error) {
	id, err := t.openMaskFlow(ctx, removeBackgroundInstruction)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Opened the mask editor on %s to remove the background. The user will confirm the region.", id), nil
}

type upscaleInput struct {
	Factor float64 `json:"factor"`
}

func (t *Tools) handleUpscaleImage(ctx context.Context, input json.RawMessage) (string, error) {
	var in upscaleInput
	_ = json.Unmarshal(input, &in)
	if in.Factor <= 1 {
		in.Factor = 2
	}

	instruction := fmt.Sprintf("Upscale this image %gx. Increase resolution and sharpen fine detail without changing the content, composition, or colors.", in.Factor)
	id, err := t.openMaskFlow(ctx, instruction)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Opened the mask editor on %s to upscale by %gx. The user will confirm the region.", id, in.Factor), nil
}
