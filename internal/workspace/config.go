package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the workspace configuration file name, looked up at the
// workspace root.
const ConfigFile = ".rubylens.yml"

// Config controls which files a workspace maps.
type Config struct {
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	Requires    []string `yaml:"require"`
	MaxFileSize int64    `yaml:"max_file_size"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	// "**/*.rb" alone would demand a literal separator, missing files
	// directly under the root, so the bare pattern rides along.
	return Config{
		Include:     []string{"*.rb", "**/*.rb"},
		Exclude:     []string{"spec/**/*", "test/**/*", "vendor/**/*", ".bundle/**/*"},
		MaxFileSize: 1 << 20,
	}
}

// LoadConfig reads the workspace config at root, falling back to defaults
// when the file is absent. A present but malformed file is an error.
func LoadConfig(root string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("workspace: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("workspace: parse %s: %w", ConfigFile, err)
	}
	if len(cfg.Include) == 0 {
		cfg.Include = DefaultConfig().Include
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultConfig().MaxFileSize
	}
	return cfg, nil
}

// compileGlobs compiles patterns with / as the separator, failing on the
// first malformed pattern so config mistakes surface immediately.
func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("workspace: bad glob %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}
