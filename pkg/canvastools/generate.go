package canvastools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type generateImageInput struct {
	Prompt      string `json:"prompt"`
	Count       int    `json:"count"`
	AspectRatio string `json:"aspectRatio"`
}

func (t *Tools) handleGenerateImage(ctx context.Context, input json.RawMessage) (string, error) {
	var in generateImageInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid generateImage input: %w", err)
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return "", fmt.Errorf("generateImage requires a prompt")
	}
	if in.Count < 1 {
		in.Count = 1
	}

	ref, _ := t.sctx.Reference()

	placeholder := t.doc.InsertPlaceholder(t.nextPlacement(0, 512, 512))
	defer t.doc.RemovePlaceholder(placeholder)

	images, err := t.gen.GenerateImages(ctx, in.Prompt, ref.Data, in.Count, in.AspectRatio)
	if err != nil {
		return "", err
	}

	ids := make([]string, 0, len(images))
	for i, data := range images {
		w, h := shapeSize(data)
		s := t.doc.CreateImageShape(data, "image/png", t.nextPlacement(i, w, h))
		ids = append(ids, s.ID)
	}

	t.connectSources(ref.ShapeID, ids)
	_ = t.doc.SetSelection(ids...)

	return fmt.Sprintf("Generated %d image(s) on the canvas: %s", len(ids), strings.Join(ids, ", ")), nil
}

type generateVideoInput struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
}

func (t *Tools) handleGenerateVideo(ctx context.Context, input json.RawMessage) (string, error) {
	var in generateVideoInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid generateVideo input: %w", err)
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return "", fmt.Errorf("generateVideo requires a prompt")
	}

	ref, _ := t.sctx.Reference()

	bounds := t.nextPlacement(0, 640, 360)
	placeholder := t.doc.InsertPlaceholder(bounds)
	defer t.doc.RemovePlaceholder(placeholder)

	videos, err := t.gen.GenerateVideo(ctx, ref.Data, in.Prompt, 1, in.AspectRatio)
	if err != nil {
		return "", err
	}

	ids := make([]string, 0, len(videos))
	for i, data := range videos {
		s := t.doc.CreateVideoShape(data, "video/mp4", t.nextPlacement(i, bounds.W, bounds.H))
		ids = append(ids, s.ID)
	}

	t.connectSources(ref.ShapeID, ids)
	_ = t.doc.SetSelection(ids...)

	if len(ids) == 1 {
		return fmt.Sprintf("Generated a video on the canvas: %s", ids[0]), nil
	}
	return fmt.Sprintf("Generated %d videos on the canvas: %s", len(ids), strings.Join(ids, ", ")), nil
}
