package exdyn

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type (
	// Config is the node's loaded on-disk configuration, carried into
	// every extension context verbatim.
	Config struct {
		Extensions ExtensionsConfig `toml:"extensions"`
		Prune      PruneConfig      `toml:"prune"`
	}

	// ExtensionsConfig configures the loading layer itself.
	ExtensionsConfig struct {
		// Dir is the flat directory of extension artifacts.
		Dir string `toml:"dir"`
		// Disabled identifiers are skipped even when discovered.
		Disabled []string `toml:"disabled"`
	}

	// PruneConfig bounds how much history the node keeps; extensions see
	// it to decide which FinishedHeight to emit.
	PruneConfig struct {
		Distance uint64 `toml:"distance"`
	}
)

// DefaultConfig is the configuration used when no file exists on disk.
func DefaultConfig() *Config {
	return &Config{
		Extensions: ExtensionsConfig{Dir: "extensions"},
		Prune:      PruneConfig{Distance: 90000},
	}
}

// LoadConfig reads the TOML configuration at path. A missing file yields
// the defaults; a malformed one is an error.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c, nil
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}

// Enabled reports whether an identifier is not on the disabled list.
func (c ExtensionsConfig) Enabled(identifier string) bool {
	for _, d := range c.Disabled {
		if d == identifier {
			return false
		}
	}
	return true
}
