package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/germanamz/easel/pkg/assistant"
	"github.com/germanamz/easel/pkg/engine"
	"github.com/germanamz/easel/pkg/media"
)

//nolint:gosec // env var reference template, not a hardcoded secret
const defaultAPIKeyRef = "${GEMINI_API_KEY}"

const (
	defaultChatModel       = "gemini-2.5-flash"
	defaultImageModel      = "gemini-2.5-flash-image"
	defaultVideoModel      = "veo-3.1-generate-preview"
	defaultListen          = "localhost:7333"
	defaultWizardMaxIter   = assistant.DefaultMaxIterations
	defaultSecondaryModel  = "gemini-2.0-flash"
	defaultSecondaryImager = "imagen-4.0-generate-001"
)

// runWizard walks the user through an interactive setup and returns the
// config YAML to write into the easel directory.
func runWizard() ([]byte, error) {
	var cfg engine.Config

	if err := wizardProviders(&cfg); err != nil {
		return nil, err
	}

	if err := wizardMedia(&cfg); err != nil {
		return nil, err
	}

	if err := wizardFallback(&cfg); err != nil {
		return nil, err
	}

	if err := wizardServer(&cfg); err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return data, nil
}

func wizardProviders(cfg *engine.Config) error {
	cfg.Providers.Primary = engine.ProviderConfig{
		Kind:   "gemini",
		APIKey: defaultAPIKeyRef,
		Model:  defaultChatModel,
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Chat model").Value(&cfg.Providers.Primary.Model),
		huh.NewInput().Title("API key env var").Value(&cfg.Providers.Primary.APIKey),
		huh.NewInput().Title("Base URL (empty = default)").Value(&cfg.Providers.Primary.BaseURL),
	)).Run(); err != nil {
		return err
	}

	var addSecondary bool
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title("Add a secondary chat model for transient-error fallback?").Value(&addSecondary),
	)).Run(); err != nil {
		return err
	}

	if !addSecondary {
		return nil
	}

	secondary := engine.ProviderConfig{
		Kind:   "gemini",
		APIKey: cfg.Providers.Primary.APIKey,
		Model:  defaultSecondaryModel,
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Secondary chat model").Value(&secondary.Model),
		huh.NewInput().Title("Secondary API key env var").Value(&secondary.APIKey),
	)).Run(); err != nil {
		return err
	}

	cfg.Providers.Secondary = &secondary

	return nil
}

func wizardMedia(cfg *engine.Config) error {
	cfg.Media.Primary = engine.MediaProviderConfig{
		Kind:       "gemini",
		APIKey:     cfg.Providers.Primary.APIKey,
		ImageModel: defaultImageModel,
		VideoModel: defaultVideoModel,
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Image model").Value(&cfg.Media.Primary.ImageModel),
		huh.NewInput().Title("Video model").Value(&cfg.Media.Primary.VideoModel),
		huh.NewInput().Title("Media API key env var").Value(&cfg.Media.Primary.APIKey),
	)).Run(); err != nil {
		return err
	}

	var addSecondary bool
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title("Add a secondary image model for per-flow fallback?").Value(&addSecondary),
	)).Run(); err != nil {
		return err
	}

	if !addSecondary {
		return nil
	}

	secondary := engine.MediaProviderConfig{
		Kind:       "gemini",
		APIKey:     cfg.Media.Primary.APIKey,
		ImageModel: defaultSecondaryImager,
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Secondary image model").Value(&secondary.ImageModel),
		huh.NewInput().Title("Secondary media API key env var").Value(&secondary.APIKey),
	)).Run(); err != nil {
		return err
	}

	cfg.Media.Secondary = &secondary

	return nil
}

func wizardFallback(cfg *engine.Config) error {
	if cfg.Media.Secondary == nil {
		return nil
	}

	enabled := []string{
		string(media.FlowTextToImage),
		string(media.FlowImageToImage),
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Enable media fallback for which flows?").
			Options(
				huh.NewOption("Text to image", string(media.FlowTextToImage)).Selected(true),
				huh.NewOption("Image to image", string(media.FlowImageToImage)).Selected(true),
				huh.NewOption("Inpaint", string(media.FlowInpaint)),
			).
			Value(&enabled),
	)).Run(); err != nil {
		return err
	}

	cfg.Fallback = make(map[string]bool, len(enabled))
	for _, flow := range enabled {
		cfg.Fallback[flow] = true
	}

	return nil
}

func wizardServer(cfg *engine.Config) error {
	listen := defaultListen
	maxIter := strconv.Itoa(defaultWizardMaxIter)

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Bridge listen address").Value(&listen),
		huh.NewInput().Title("Max tool iterations per prompt").Value(&maxIter).Validate(validatePositiveInt),
	)).Run(); err != nil {
		return err
	}

	cfg.Listen = listen
	cfg.MaxIterations, _ = strconv.Atoi(maxIter)

	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}

	return nil
}
