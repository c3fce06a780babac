package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the optional user configuration, loaded from a TOML file.
// Flags override config values; config values override built-in defaults.
type Config struct {
	// TemplateDir is the default directory scanned for template packages.
	TemplateDir string `toml:"template_dir"`

	// SchemaPath locates the shared PhotoTemplate.xsd document.
	SchemaPath string `toml:"schema_path"`

	// Format is the default output format (png or jpeg).
	Format string `toml:"format"`

	// NoCache disables the artifact cache.
	NoCache bool `toml:"no_cache"`

	// RedisAddr switches the artifact cache to a Redis instance (host:port).
	RedisAddr string `toml:"redis_addr"`

	// ListenAddr is the default bind address for the serve command.
	ListenAddr string `toml:"listen_addr"`
}

// DefaultConfigPath returns the config file location using the XDG standard
// (~/.config/montage/config.toml).
func DefaultConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// LoadConfig reads a TOML config file. A missing file is not an error; it
// yields the zero Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
