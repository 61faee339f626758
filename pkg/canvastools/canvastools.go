// Package canvastools provides the assistant's tool catalog: every canvas
// mutation the model may request, bound to the spatial document and the
// media generation client. Handlers return structured errors rather than
// panicking so the orchestration loop can hand failures back to the model.
package canvastools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/germanamz/easel/pkg/assistant"
	"github.com/germanamz/easel/pkg/canvas"
	"github.com/germanamz/easel/pkg/media"
	"github.com/germanamz/easel/pkg/tools/toolbox"
)

// MaskEditor opens the interactive masked-edit flow in the frontend, seeded
// with a target shape, an instruction, and an optional overlay image.
type MaskEditor interface {
	OpenMaskEditor(ctx context.Context, shapeID, prompt string, overlay []byte) error
}

// Tools binds the tool catalog to a canvas document, a media generator, the
// session's implicit context, and the frontend's mask editor.
type Tools struct {
	doc    *canvas.Document
	gen    media.Generator
	sctx   *assistant.Context
	editor MaskEditor
}

// New creates the canvas tool catalog.
func New(doc *canvas.Document, gen media.Generator, sctx *assistant.Context, editor MaskEditor) *Tools {
	return &Tools{
		doc:    doc,
		gen:    gen,
		sctx:   sctx,
		editor: editor,
	}
}

// Tools returns the assistant's toolbox. Declaration order is what the
// model sees on every request.
func (t *Tools) Tools() *toolbox.ToolBox {
	tb := toolbox.New()

	tb.Register(
		toolbox.Tool{
			Name:        "generateImage",
			Description: "Generate one or more new images from a text prompt and insert them onto the canvas. Uses the image the user attached to the chat as a style/content reference when one is available.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"prompt":{"type":"string","description":"What to generate"},"count":{"type":"integer","description":"Number of images (default 1)"},"aspectRatio":{"type":"string","description":"Aspect ratio such as 1:1 or 16:9"}},"required":["prompt"]}`),
			Handler:     t.handleGenerateImage,
		},
		toolbox.Tool{
			Name:        "editImage",
			Description: "Edit the current image with a natural-language instruction. Opens the mask editor on the target image so the user can confirm the region. The target is the image the user attached or selected.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"prompt":{"type":"string","description":"The edit instruction"}},"required":["prompt"]}`),
			Handler:     t.handleEditImage,
		},
		toolbox.Tool{
			Name:        "removeBackground",
			Description: "Remove the background of the current image, preserving the main subject.",
			InputSchema: json.RawMessage(`{"type":"object"}`),
			Handler:     t.handleRemoveBackground,
		},
		toolbox.Tool{
			Name:        "applyOverlay",
			Description: "Deterministically paint one image shape on top of another at its current position, then delete the overlay shape. No AI is involved; pixels outside the overlay are untouched.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"baseShapeId":{"type":"string","description":"Shape to paint onto (defaults to the current image)"},"overlayShapeId":{"type":"string","description":"Shape to paint (defaults to the most recent other attached image)"}}}`),
			Handler:     t.handleApplyOverlay,
		},
		toolbox.Tool{
			Name:        "composeAI",
			Description: "Blend an overlay image into a base image with an AI edit guided by a prompt, writing the result back onto the base image.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"prompt":{"type":"string","description":"How to blend the images"},"baseShapeId":{"type":"string"},"overlayShapeId":{"type":"string"}},"required":["prompt"]}`),
			Handler:     t.handleComposeAI,
		},
		toolbox.Tool{
			Name:        "upscaleImage",
			Description: "Increase the resolution and sharpness of the current image.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"factor":{"type":"number","description":"Scale factor (default 2)"}}}`),
			Handler:     t.handleUpscaleImage,
		},
		toolbox.Tool{
			Name:        "generateVideo",
			Description: "Generate a short video from a text prompt, optionally animating the current reference image, and insert it onto the canvas as a playable asset.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"prompt":{"type":"string","description":"What the video should show"},"aspectRatio":{"type":"string"}},"required":["prompt"]}`),
			Handler:     t.handleGenerateVideo,
		},
		toolbox.Tool{
			Name:        "plan",
			Description: "Acknowledge a multi-step plan before executing it. Call this first when a request needs several tool calls, then issue each step as its own call.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"steps":{"type":"array","items":{"type":"string"},"description":"The intended steps in order"}}}`),
			Handler:     t.handlePlan,
		},
	)

	return tb
}

type planInput struct {
	Steps []string `json:"steps"`
}

// handlePlan acknowledges the plan. It never fails; the model follows up
// with one tool call per step.
func (t *Tools) handlePlan(_ context.Context, input json.RawMessage) (string, error) {
	var in planInput
	_ = json.Unmarshal(input, &in)

	if len(in.Steps) == 0 {
		return "Plan acknowledged. Execute each step with its own tool call.", nil
	}

	return fmt.Sprintf("Plan acknowledged (%d steps). Execute each step with its own tool call, in order.", len(in.Steps)), nil
}
