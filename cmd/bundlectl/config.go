package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/fileslot/bundlestore"
)

// toolConfig is local to bundlectl; it is never consulted by the
// bundlestore package itself, which takes its [bundlestore.Settings] only
// via [bundlestore.SetSettings] at process start.
type toolConfig struct {
	MaxBundleSize     *uint64 `json:"max_bundle_size"`
	BundleCountPerDay *uint32 `json:"bundle_count_per_day"`
	FileCountLevel1   *uint32 `json:"file_count_level1"`
	FileCountLevel2   *uint32 `json:"file_count_level2"`
}

const toolConfigFile = ".bundlectl.jsonc"

// loadToolConfig reads .bundlectl.jsonc from the current directory, if
// present, and applies any overrides on top of [bundlestore.DefaultSettings].
// A missing file is not an error.
func loadToolConfig() (bundlestore.Settings, error) {
	settings := bundlestore.DefaultSettings()

	data, err := os.ReadFile(toolConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}

		return settings, fmt.Errorf("reading %s: %w", toolConfigFile, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return settings, fmt.Errorf("invalid JSONC in %s: %w", toolConfigFile, err)
	}

	var cfg toolConfig
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return settings, fmt.Errorf("invalid JSON in %s: %w", toolConfigFile, err)
	}

	if cfg.MaxBundleSize != nil {
		settings.MaxBundleSize = *cfg.MaxBundleSize
	}

	if cfg.BundleCountPerDay != nil {
		settings.BundleCountPerDay = *cfg.BundleCountPerDay
	}

	if cfg.FileCountLevel1 != nil {
		settings.FileCountLevel1 = *cfg.FileCountLevel1
	}

	if cfg.FileCountLevel2 != nil {
		settings.FileCountLevel2 = *cfg.FileCountLevel2
	}

	return settings, nil
}
