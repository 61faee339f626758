package media

import (
	"context"
	"errors"
	"fmt"
)

// Compile-time check that *FallbackGenerator implements Generator.
var _ Generator = (*FallbackGenerator)(nil)

// FallbackGenerator routes failed primary generations to a secondary
// provider, flow by flow. A flow only falls back when its toggle is enabled
// and a secondary is configured; otherwise the primary error surfaces.
// Content-safety rejections are terminal and never reach the secondary.
type FallbackGenerator struct {
	Primary   Generator
	Secondary Generator
	Flows     *Toggles

	// OnFallback, when set, is called with the flow and primary error just
	// before the secondary attempt.
	OnFallback func(flow Flow, err error)
}

func (f *FallbackGenerator) canFallback(flow Flow, err error) bool {
	if f.Secondary == nil || f.Flows == nil || !f.Flows.Enabled(flow) {
		return false
	}

	var fe *FilteredError
	return !errors.As(err, &fe)
}

func (f *FallbackGenerator) notify(flow Flow, err error) {
	if f.OnFallback != nil {
		f.OnFallback(flow, err)
	}
}

// DescribeImage always uses the primary provider; description is auxiliary
// and has no fallback flow.
func (f *FallbackGenerator) DescribeImage(ctx context.Context, img []byte) (string, error) {
	return f.Primary.DescribeImage(ctx, img)
}

// GenerateImages runs text-to-image (no reference) or image-to-image (with
// reference) against the primary, falling back per the matching flow toggle.
func (f *FallbackGenerator) GenerateImages(ctx context.Context, prompt string, ref []byte, count int, aspectRatio string) ([][]byte, error) {
	flow := FlowTextToImage
	if len(ref) > 0 {
		flow = FlowImageToImage
	}

	images, err := f.Primary.GenerateImages(ctx, prompt, ref, count, aspectRatio)
	if err == nil {
		return images, nil
	}
	if !f.canFallback(flow, err) {
		return nil, err
	}

	f.notify(flow, err)

	images, ferr := f.Secondary.GenerateImages(ctx, prompt, ref, count, aspectRatio)
	if ferr != nil {
		return nil, fmt.Errorf("media: fallback failed after %v: %w", err, ferr)
	}

	return images, nil
}

// EditImage runs the inpaint flow against the primary, falling back when the
// inpaint toggle is enabled.
func (f *FallbackGenerator) EditImage(ctx context.Context, img, mask []byte, prompt string, overlay []byte) ([]byte, error) {
	out, err := f.Primary.EditImage(ctx, img, mask, prompt, overlay)
	if err == nil {
		return out, nil
	}
	if !f.canFallback(FlowInpaint, err) {
		return nil, err
	}

	f.notify(FlowInpaint, err)

	out, ferr := f.Secondary.EditImage(ctx, img, mask, prompt, overlay)
	if ferr != nil {
		return nil, fmt.Errorf("media: fallback failed after %v: %w", err, ferr)
	}

	return out, nil
}

// GenerateVideo retries the entire request end-to-end against the secondary
// provider when the primary fails and the video toggle is enabled.
// Safety-filtered output never falls back.
func (f *FallbackGenerator) GenerateVideo(ctx context.Context, ref []byte, prompt string, count int, aspectRatio string) ([][]byte, error) {
	videos, err := f.Primary.GenerateVideo(ctx, ref, prompt, count, aspectRatio)
	if err == nil {
		return videos, nil
	}
	if !f.canFallback(FlowVideo, err) {
		return nil, err
	}

	f.notify(FlowVideo, err)

	videos, ferr := f.Secondary.GenerateVideo(ctx, ref, prompt, count, aspectRatio)
	if ferr != nil {
		return nil, fmt.Errorf("media: fallback failed after %v: %w", err, ferr)
	}

	return videos, nil
}
