package engine

import (
	"fmt"
	"sync"

	"github.com/germanamz/easel/pkg/media"
	"github.com/germanamz/easel/pkg/modeladapter"
	"github.com/germanamz/easel/pkg/providers/gemini"
)

// ProviderFactory creates a Completer from a ProviderConfig.
type ProviderFactory func(cfg ProviderConfig) (modeladapter.Completer, error)

// MediaFactory creates a media Generator from a MediaProviderConfig.
type MediaFactory func(cfg MediaProviderConfig) (media.Generator, error)

var (
	factoryMu      sync.RWMutex
	factories      = map[string]ProviderFactory{}
	mediaFactories = map[string]MediaFactory{}
	defaultsReg    sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories["gemini"] = newGeminiCompleter
		mediaFactories["gemini"] = newGeminiGenerator
	})
}

// RegisterProvider registers a custom completer factory under the given
// kind. It can be called before New to extend the engine with additional
// providers.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// RegisterMediaProvider registers a custom media generator factory under the
// given kind.
func RegisterMediaProvider(kind string, factory MediaFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	mediaFactories[kind] = factory
}

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

func newGeminiCompleter(cfg ProviderConfig) (modeladapter.Completer, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	return gemini.New(baseURL, cfg.APIKey, cfg.Model), nil
}

func newGeminiGenerator(cfg MediaProviderConfig) (media.Generator, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	return media.NewGemini(baseURL, cfg.APIKey, cfg.ImageModel, cfg.VideoModel), nil
}

func buildCompleter(cfg ProviderConfig) (modeladapter.Completer, error) {
	ensureDefaults()

	factoryMu.RLock()
	factory, ok := factories[cfg.Kind]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine: unknown provider kind %q", cfg.Kind)
	}

	return factory(cfg)
}

func buildGenerator(cfg MediaProviderConfig) (media.Generator, error) {
	ensureDefaults()

	factoryMu.RLock()
	factory, ok := mediaFactories[cfg.Kind]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine: unknown media provider kind %q", cfg.Kind)
	}

	return factory(cfg)
}
