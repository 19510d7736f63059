package config

import (
	"path/filepath"
	"runtime"
	"strings"
)

// applyDefaults fills values that depend on other settings.
func (c *Config) applyDefaults() {
	if c.Build.Workers <= 0 {
		c.Build.Workers = runtime.NumCPU()
	}
	if strings.TrimSpace(c.Build.Timezone) == "" {
		c.Build.Timezone = "UTC"
	}
	c.Site.BaseURL = strings.TrimRight(c.Site.BaseURL, "/")
	if c.Site.Params == nil {
		c.Site.Params = map[string]any{}
	}
	c.ResolvePaths()
}

// ResolvePaths derives the layouts and static directories from the content
// directory when they are unset. Call again after overriding ContentDir.
func (c *Config) ResolvePaths() {
	if c.Build.ContentDir == "" {
		return
	}
	if c.Build.LayoutsDir == "" {
		c.Build.LayoutsDir = filepath.Join(c.Build.ContentDir, "_layouts")
	}
	if c.Build.StaticDir == "" {
		c.Build.StaticDir = filepath.Join(c.Build.ContentDir, "static")
	}
}
