// Package config loads the optional sitebuilder configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DefaultFileName is looked up in the content directory when no --config is given.
const DefaultFileName = "sitebuilder.yaml"

// Config is the complete build configuration.
type Config struct {
	Site   SiteConfig   `yaml:"site"`
	Build  BuildConfig  `yaml:"build"`
	Render RenderConfig `yaml:"render"`
	Watch  WatchConfig  `yaml:"watch"`
	Events EventsConfig `yaml:"events"`
}

// SiteConfig holds site-wide values exposed to every template as .Site.
type SiteConfig struct {
	Title       string         `yaml:"title"`
	BaseURL     string         `yaml:"base_url"`
	Description string         `yaml:"description"`
	Language    string         `yaml:"language"`
	Author      string         `yaml:"author"`
	Params      map[string]any `yaml:"params"` // lowest-precedence page defaults
}

// BuildConfig controls discovery, parallelism and output handling.
type BuildConfig struct {
	ContentDir string `yaml:"content_dir"`
	OutputDir  string `yaml:"output_dir"`
	LayoutsDir string `yaml:"layouts_dir"` // default <content_dir>/_layouts
	StaticDir  string `yaml:"static_dir"`  // default <content_dir>/static
	StateDir   string `yaml:"state_dir"`   // report, metrics and cache; empty disables them

	Workers   int    `yaml:"workers"` // 0 means runtime.NumCPU()
	Drafts    bool   `yaml:"drafts"`
	Permalink string `yaml:"permalink"`
	Timezone  string `yaml:"timezone"`

	Incremental bool `yaml:"incremental"`
	PruneStale  bool `yaml:"prune_stale"`
	GitLastmod  bool `yaml:"git_lastmod"`
	LinkCheck   bool `yaml:"link_check"`
}

// RenderConfig controls markdown conversion and generated pages.
type RenderConfig struct {
	UnsafeHTML    bool `yaml:"unsafe_html"`
	SummaryLength int  `yaml:"summary_length"`
	PageSize      int  `yaml:"page_size"`
	FeedSize      int  `yaml:"feed_size"`
	RelatedLimit  int  `yaml:"related_limit"`
	Feed          bool `yaml:"feed"`
	Sitemap       bool `yaml:"sitemap"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Interval time.Duration `yaml:"interval"` // periodic full rebuild, 0 disables
}

// EventsConfig configures optional build-completed notifications.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Site: SiteConfig{Title: "My Site", Language: "en"},
		Build: BuildConfig{
			Permalink:   "",
			Timezone:    "UTC",
			Incremental: true,
			PruneStale:  true,
			LinkCheck:   true,
		},
		Render: RenderConfig{
			UnsafeHTML:    true,
			SummaryLength: 200,
			PageSize:      10,
			FeedSize:      20,
			RelatedLimit:  5,
			Feed:          true,
			Sitemap:       true,
		},
		Watch:  WatchConfig{Debounce: 300 * time.Millisecond},
		Events: EventsConfig{Subject: "sitebuilder.build.completed"},
	}
}

// Load reads path, expands environment references and validates the result.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration").
			WithContext("path", path).Build()
	}
	return Parse(data)
}

// Parse decodes YAML configuration data on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "decode configuration").Build()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid configuration").Build()
	}
	return cfg, nil
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Build.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WriteExample writes an annotated example configuration to path.
func WriteExample(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).Build()
	}
	out, err := yaml.Marshal(Default())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "encode example configuration").Build()
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write example configuration").
			WithContext("path", path).Build()
	}
	return nil
}
