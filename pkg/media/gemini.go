package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/germanamz/easel/pkg/modeladapter"
)

// Compile-time check that *Gemini implements Generator.
var _ Generator = (*Gemini)(nil)

// Gemini generates images and videos through the Google generative media
// APIs: multimodal generateContent for images and a long-running prediction
// operation for video.
type Gemini struct {
	modeladapter.ModelAdapter

	ImageModel string // multimodal image-output model
	VideoModel string // long-running video model

	// PollInterval is the delay between video operation polls. MaxPolls
	// bounds the wait; zero means DefaultMaxPolls.
	PollInterval time.Duration
	MaxPolls     int

	// Clock drives the polling delay. Nil uses the wall clock; tests inject
	// an immediate clock.
	Clock Clock
}

// DefaultMaxPolls bounds video polling (at the default interval this is
// ten minutes).
const DefaultMaxPolls = 120

// Clock abstracts timer scheduling for the video polling loop.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type wallClock struct{}

func (wallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewGemini creates a media client for the Gemini API. The baseURL should be
// "https://generativelanguage.googleapis.com" (no trailing slash).
func NewGemini(baseURL, apiKey, imageModel, videoModel string) *Gemini {
	g := &Gemini{
		ImageModel:   imageModel,
		VideoModel:   videoModel,
		PollInterval: 5 * time.Second,
	}
	g.BaseURL = baseURL
	g.Auth = modeladapter.Auth{
		Key:    apiKey,
		Header: "x-goog-api-key",
	}

	return g
}

func (g *Gemini) clock() Clock {
	if g.Clock != nil {
		return g.Clock
	}
	return wallClock{}
}

// --- generateContent wire types (image + describe paths) ---

type genRequest struct {
	Contents         []genContent `json:"contents"`
	GenerationConfig *genConfig   `json:"generationConfig,omitempty"`
}

type genContent struct {
	Role  string    `json:"role"`
	Parts []genPart `json:"parts"`
}

type genPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *genInlineData `json:"inlineData,omitempty"`
}

type genInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type genConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	ImageConfig        *genImageConf `json:"imageConfig,omitempty"`
}

type genImageConf struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type genResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

func inlinePart(data []byte, mime string) genPart {
	if mime == "" {
		mime = "image/png"
	}
	return genPart{InlineData: &genInlineData{
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

// imagesFrom collects the decoded inline images of every candidate.
func imagesFrom(resp genResponse) [][]byte {
	var out [][]byte
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				continue
			}
			out = append(out, data)
		}
	}
	return out
}

func textFrom(resp genResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// DescribeImage returns a short text description of the image.
func (g *Gemini) DescribeImage(ctx context.Context, img []byte) (string, error) {
	req := genRequest{
		Contents: []genContent{{
			Role: "user",
			Parts: []genPart{
				{Text: "Describe this image in one concise sentence."},
				inlinePart(img, ""),
			},
		}},
	}

	var resp genResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", g.ImageModel)
	if err := g.PostJSON(ctx, path, req, &resp); err != nil {
		return "", fmt.Errorf("media: describe image: %w", err)
	}

	desc := textFrom(resp)
	if desc == "" {
		return "", fmt.Errorf("media: describe image: empty response")
	}

	return desc, nil
}

// diversityHint is appended to the prompt on the single automatic retry
// after a pass that produced zero images.
const diversityHint = " Render a distinct interpretation: vary the camera angle, lighting, and composition, and avoid an exact reproduction of any reference."

// GenerateImages produces count images for the prompt, one request per
// requested image. A pass that yields zero images triggers exactly one
// retry with a diversity-augmented prompt; a second empty outcome fails
// with ErrNoImages.
func (g *Gemini) GenerateImages(ctx context.Context, prompt string, ref []byte, count int, aspectRatio string) ([][]byte, error) {
	if count <= 0 {
		count = 1
	}

	var images [][]byte
	for i := 0; i < count; i++ {
		batch, err := g.generateOnce(ctx, prompt, ref, aspectRatio)
		if err != nil {
			return nil, err
		}
		images = append(images, batch...)
	}

	if len(images) > 0 {
		return images, nil
	}

	retry, err := g.generateOnce(ctx, prompt+diversityHint, ref, aspectRatio)
	if err != nil {
		return nil, err
	}
	if len(retry) == 0 {
		return nil, ErrNoImages
	}

	return retry, nil
}

func (g *Gemini) generateOnce(ctx context.Context, prompt string, ref []byte, aspectRatio string) ([][]byte, error) {
	parts := []genPart{{Text: prompt}}
	if len(ref) > 0 {
		parts = append(parts, inlinePart(ref, ""))
	}

	req := genRequest{
		Contents: []genContent{{Role: "user", Parts: parts}},
		GenerationConfig: &genConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	if aspectRatio != "" {
		req.GenerationConfig.ImageConfig = &genImageConf{AspectRatio: aspectRatio}
	}

	var resp genResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", g.ImageModel)
	if err := g.PostJSON(ctx, path, req, &resp); err != nil {
		return nil, fmt.Errorf("media: generate images: %w", err)
	}

	return imagesFrom(resp), nil
}

// EditImage applies prompt-driven edits to img within the white region of
// mask, optionally guided by an overlay image.
func (g *Gemini) EditImage(ctx context.Context, img, mask []byte, prompt string, overlay []byte) ([]byte, error) {
	parts := []genPart{
		{Text: prompt + " Apply the edit only where the second image (the mask) is white; keep masked-off areas identical."},
		inlinePart(img, ""),
		inlinePart(mask, ""),
	}
	if len(overlay) > 0 {
		parts = append(parts, genPart{Text: "Use the following image as the reference overlay."}, inlinePart(overlay, ""))
	}

	req := genRequest{
		Contents:         []genContent{{Role: "user", Parts: parts}},
		GenerationConfig: &genConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	}

	var resp genResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", g.ImageModel)
	if err := g.PostJSON(ctx, path, req, &resp); err != nil {
		return nil, fmt.Errorf("media: edit image: %w", err)
	}

	images := imagesFrom(resp)
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	return images[0], nil
}

// --- video generation: long-running operation ---

// opState tracks a video operation through its lifecycle. Transitions are
// strictly forward: submitted → polling → done | filtered | failed.
type opState int

const (
	opSubmitted opState = iota
	opPolling
	opDone
	opFiltered
	opFailed
)

type videoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParams     `json:"parameters"`
}

type videoInstance struct {
	Prompt string         `json:"prompt"`
	Image  *genInlineData `json:"image,omitempty"`
}

type videoParams struct {
	SampleCount int    `json:"sampleCount,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type operationResponse struct {
	Name     string           `json:"name"`
	Done     bool             `json:"done"`
	Error    *operationError  `json:"error,omitempty"`
	Response *operationResult `json:"response,omitempty"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type operationResult struct {
	GenerateVideoResponse videoResult `json:"generateVideoResponse"`
}

type videoResult struct {
	RaiMediaFilteredReasons []string      `json:"raiMediaFilteredReasons"`
	GeneratedSamples        []videoSample `json:"generatedSamples"`
}

type videoSample struct {
	Video videoPayload `json:"video"`
}

type videoPayload struct {
	URI                string `json:"uri"`
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

// videoOperation is the explicit state machine driving one video generation.
type videoOperation struct {
	client  *Gemini
	name    string
	state   opState
	polls   int
	result  operationResponse
	lastErr error
}

// step advances the operation by one transition and reports whether it
// reached a terminal state.
func (op *videoOperation) step(ctx context.Context) bool {
	switch op.state {
	case opSubmitted:
		op.state = opPolling
		return false

	case opPolling:
		maxPolls := op.client.MaxPolls
		if maxPolls == 0 {
			maxPolls = DefaultMaxPolls
		}
		if op.polls >= maxPolls {
			op.lastErr = fmt.Errorf("media: video operation %s did not complete after %d polls", op.name, op.polls)
			op.state = opFailed
			return true
		}

		select {
		case <-ctx.Done():
			op.lastErr = ctx.Err()
			op.state = opFailed
			return true
		case <-op.client.clock().After(op.client.PollInterval):
		}

		op.polls++

		var resp operationResponse
		if err := op.client.GetJSON(ctx, "/v1beta/"+op.name, &resp); err != nil {
			op.lastErr = fmt.Errorf("media: poll video operation: %w", err)
			op.state = opFailed
			return true
		}
		if !resp.Done {
			return false
		}

		op.result = resp
		if resp.Error != nil {
			op.lastErr = fmt.Errorf("media: video operation failed: %s", resp.Error.Message)
			op.state = opFailed
			return true
		}
		if resp.Response != nil && len(resp.Response.GenerateVideoResponse.RaiMediaFilteredReasons) > 0 {
			op.state = opFiltered
			return true
		}
		op.state = opDone
		return true

	default:
		return true
	}
}

// GenerateVideo submits a long-running generation, polls it to completion,
// and returns the video bytes. Safety-filtered output fails immediately
// with a FilteredError carrying the provider's reasons.
func (g *Gemini) GenerateVideo(ctx context.Context, ref []byte, prompt string, count int, aspectRatio string) ([][]byte, error) {
	if count <= 0 {
		count = 1
	}

	inst := videoInstance{Prompt: prompt}
	if len(ref) > 0 {
		data := inlinePart(ref, "")
		inst.Image = data.InlineData
	}

	req := videoRequest{
		Instances:  []videoInstance{inst},
		Parameters: videoParams{SampleCount: count, AspectRatio: aspectRatio},
	}

	var submitted operationResponse
	path := fmt.Sprintf("/v1beta/models/%s:predictLongRunning", g.VideoModel)
	if err := g.PostJSON(ctx, path, req, &submitted); err != nil {
		return nil, fmt.Errorf("media: submit video generation: %w", err)
	}
	if submitted.Name == "" {
		return nil, fmt.Errorf("media: submit video generation: no operation name in response")
	}

	op := &videoOperation{client: g, name: submitted.Name}
	for !op.step(ctx) {
	}

	switch op.state {
	case opFiltered:
		return nil, &FilteredError{Reasons: op.result.Response.GenerateVideoResponse.RaiMediaFilteredReasons}
	case opFailed:
		return nil, op.lastErr
	}

	return g.collectVideos(ctx, op.result)
}

func (g *Gemini) collectVideos(ctx context.Context, resp operationResponse) ([][]byte, error) {
	if resp.Response == nil {
		return nil, fmt.Errorf("media: video operation completed without a response body")
	}

	var videos [][]byte
	for _, sample := range resp.Response.GenerateVideoResponse.GeneratedSamples {
		switch {
		case sample.Video.BytesBase64Encoded != "":
			data, err := base64.StdEncoding.DecodeString(sample.Video.BytesBase64Encoded)
			if err != nil {
				return nil, fmt.Errorf("media: decode video bytes: %w", err)
			}
			videos = append(videos, data)
		case sample.Video.URI != "":
			data, err := g.fetchBytes(ctx, sample.Video.URI)
			if err != nil {
				return nil, fmt.Errorf("media: fetch video: %w", err)
			}
			videos = append(videos, data)
		}
	}

	if len(videos) == 0 {
		return nil, fmt.Errorf("media: video generation returned no samples")
	}

	return videos, nil
}

// fetchBytes downloads generated media from a result URI, which may point at
// the API host or an absolute download URL.
func (g *Gemini) fetchBytes(ctx context.Context, uri string) ([]byte, error) {
	path := uri
	if strings.HasPrefix(uri, g.BaseURL) {
		path = strings.TrimPrefix(uri, g.BaseURL)
	} else if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(g.Auth.Header, g.Auth.Key)

		resp, err := g.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			return nil, &modeladapter.HTTPError{Status: resp.StatusCode, Body: string(body)}
		}

		return io.ReadAll(resp.Body)
	}

	req, err := g.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &modeladapter.HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	return io.ReadAll(resp.Body)
}
