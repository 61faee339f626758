// Package media provides the generation client the canvas tools call for
// images and videos. It defines the Generator contract, the distinguished
// error kinds the orchestrator and UI react to, and a per-flow fallback
// wrapper over a secondary provider.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Flow names a generation path that can be independently routed to the
// fallback provider.
type Flow string

const (
	FlowTextToImage  Flow = "text_to_image"
	FlowImageToImage Flow = "image_to_image"
	FlowInpaint      Flow = "inpaint"
	FlowVideo        Flow = "video"
)

// ErrNoImages is returned when generation produced zero images even after
// the automatic augmented-prompt retry. Frontends recognize it to show
// actionable guidance instead of a generic failure.
var ErrNoImages = errors.New("media: no images returned")

// FilteredError is returned when a video generation completed but its output
// was removed by content-safety filtering. The reasons are surfaced to the
// user verbatim and the request is never retried or sent to a fallback.
type FilteredError struct {
	Reasons []string
}

func (e *FilteredError) Error() string {
	return fmt.Sprintf("media: output filtered: %s", strings.Join(e.Reasons, "; "))
}

// Generator produces media from prompts and reference images.
type Generator interface {
	// DescribeImage returns a short text description of the image.
	DescribeImage(ctx context.Context, img []byte) (string, error)

	// GenerateImages produces count images for the prompt, optionally
	// conditioned on a reference image. Returns ErrNoImages when nothing was
	// produced after the automatic retry.
	GenerateImages(ctx context.Context, prompt string, ref []byte, count int, aspectRatio string) ([][]byte, error)

	// EditImage applies prompt-driven edits to img within the white region
	// of mask, optionally guided by an overlay image.
	EditImage(ctx context.Context, img, mask []byte, prompt string, overlay []byte) ([]byte, error)

	// GenerateVideo produces count videos, optionally animating a reference
	// image. Polling of the underlying long-running operation is internal.
	GenerateVideo(ctx context.Context, ref []byte, prompt string, count int, aspectRatio string) ([][]byte, error)
}

// Toggles holds the per-flow fallback switches, flipped by user action and
// read before every fallback attempt. Safe for concurrent use.
type Toggles struct {
	mu      sync.RWMutex
	enabled map[Flow]bool
}

// NewToggles creates Toggles with every flow disabled.
func NewToggles() *Toggles {
	return &Toggles{enabled: make(map[Flow]bool)}
}

// Set enables or disables fallback for a flow.
func (t *Toggles) Set(flow Flow, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled[flow] = on
}

// Enabled reports whether fallback is enabled for a flow.
func (t *Toggles) Enabled(flow Flow) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.enabled[flow]
}
