package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/germanamz/easel/pkg/media"
)

// Config is the top-level engine configuration.
type Config struct {
	EaselDir      string          `yaml:"-"` // Set by CLI, not from YAML.
	Providers     ProvidersConfig `yaml:"providers"`
	Media         MediaConfig     `yaml:"media"`
	Fallback      map[string]bool `yaml:"fallback"` // initial per-flow fallback switches
	Listen        string          `yaml:"listen"`
	MaxIterations int             `yaml:"max_iterations"`
}

// ProvidersConfig names the primary language model and the optional
// secondary the session falls back to on transient errors.
type ProvidersConfig struct {
	Primary   ProviderConfig  `yaml:"primary"`
	Secondary *ProviderConfig `yaml:"secondary"`
}

// ProviderConfig describes one language model endpoint.
type ProviderConfig struct {
	Kind    string `yaml:"kind"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model   string `yaml:"model"`
}

// MediaConfig names the primary media generation provider and the optional
// secondary used by the per-flow fallback.
type MediaConfig struct {
	Primary   MediaProviderConfig  `yaml:"primary"`
	Secondary *MediaProviderConfig `yaml:"secondary"`
}

// MediaProviderConfig describes one media generation endpoint.
type MediaProviderConfig struct {
	Kind       string `yaml:"kind"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	ImageModel string `yaml:"image_model"`
	VideoModel string `yaml:"video_model"`
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing. This allows API keys and other secrets to be kept in
// environment variables (e.g. loaded from a .env file) rather than committed
// in the config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

var knownFlows = map[string]media.Flow{
	string(media.FlowTextToImage):  media.FlowTextToImage,
	string(media.FlowImageToImage): media.FlowImageToImage,
	string(media.FlowInpaint):      media.FlowInpaint,
	string(media.FlowVideo):        media.FlowVideo,
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Providers.Primary.Kind == "" {
		return fmt.Errorf("engine: config: providers.primary.kind is required")
	}
	if c.Providers.Secondary != nil && c.Providers.Secondary.Kind == "" {
		return fmt.Errorf("engine: config: providers.secondary.kind is required when set")
	}

	if c.Media.Primary.Kind == "" {
		return fmt.Errorf("engine: config: media.primary.kind is required")
	}
	if c.Media.Secondary != nil && c.Media.Secondary.Kind == "" {
		return fmt.Errorf("engine: config: media.secondary.kind is required when set")
	}

	for name := range c.Fallback {
		if _, ok := knownFlows[name]; !ok {
			return fmt.Errorf("engine: config: unknown fallback flow %q", name)
		}
	}

	if c.MaxIterations < 0 {
		return fmt.Errorf("engine: config: max_iterations must not be negative")
	}

	return nil
}

// mediaConfigured reports whether a secondary media provider carries a
// credential. An unset credential disables fallback rather than erroring.
func (m MediaConfig) secondaryConfigured() bool {
	return m.Secondary != nil && m.Secondary.APIKey != ""
}
