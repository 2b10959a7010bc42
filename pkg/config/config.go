package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// AppName names the config directory.
	AppName = "kintree"

	// FileName is the config file name inside the config directory.
	FileName = "config.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "KINTREE_"

	// DefaultAddr is the listen address of the HTTP server.
	DefaultAddr = "127.0.0.1:8080"
)

// =============================================================================
// Types
// =============================================================================

// Config is the complete runtime configuration.
type Config struct {
	Layout  Layout         `toml:"layout"`
	Server  Server         `toml:"server"`
	Storage storage.Config `toml:"storage"`

	// Persona names the person seeded into an empty tree.
	Persona string `toml:"persona"`

	// source is the file the config was read from, empty for defaults.
	source string
}

// Layout mirrors [layout.Options] in pixels.
type Layout struct {
	VerticalSpacing  float64 `toml:"vertical_spacing"`
	HorizontalMargin float64 `toml:"horizontal_margin"`
	NodeHeight       float64 `toml:"node_height"`
	MinNodeWidth     float64 `toml:"min_node_width"`
	CharWidth        float64 `toml:"char_width"`
	NodePadding      float64 `toml:"node_padding"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	o := layout.DefaultOptions()
	return Config{
		Layout: Layout{
			VerticalSpacing:  o.VerticalSpacing,
			HorizontalMargin: o.HorizontalMargin,
			NodeHeight:       o.NodeHeight,
			MinNodeWidth:     o.MinNodeWidth,
			CharWidth:        o.CharWidth,
			NodePadding:      o.NodePadding,
		},
		Server:  Server{Addr: DefaultAddr},
		Storage: storage.Config{Backend: storage.BackendMemory},
	}
}

// Options converts the layout section into [layout.Options].
func (l Layout) Options() layout.Options {
	return layout.Options{
		VerticalSpacing:  l.VerticalSpacing,
		HorizontalMargin: l.HorizontalMargin,
		NodeHeight:       l.NodeHeight,
		MinNodeWidth:     l.MinNodeWidth,
		CharWidth:        l.CharWidth,
		NodePadding:      l.NodePadding,
	}
}

// Source returns the path the config was loaded from, or "" if none was.
func (c Config) Source() string { return c.source }

// =============================================================================
// Loading
// =============================================================================

// Load builds the configuration in three layers: defaults, the TOML file at
// path (or [Path] when path is empty), then environment variables. A .env
// file in the working directory is read into the environment first; it
// never overrides variables that are already set.
//
// A missing file is only an error when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read .env")
	}

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		switch {
		case os.IsNotExist(err) && !explicit:
		case os.IsNotExist(err):
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		default:
			return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
		}
	} else {
		cfg.source = path
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Path returns $XDG_CONFIG_HOME/kintree/config.toml, falling back to
// ~/.config/kintree/config.toml.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, FileName), nil
}

// =============================================================================
// Environment
// =============================================================================

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"PERSONA":          &c.Persona,
		"SERVER_ADDR":      &c.Server.Addr,
		"STORAGE_BACKEND":  &c.Storage.Backend,
		"STORAGE_PATH":     &c.Storage.Path,
		"STORAGE_URL":      &c.Storage.URL,
		"STORAGE_DATABASE": &c.Storage.Database,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	floats := map[string]*float64{
		"LAYOUT_VERTICAL_SPACING":  &c.Layout.VerticalSpacing,
		"LAYOUT_HORIZONTAL_MARGIN": &c.Layout.HorizontalMargin,
		"LAYOUT_NODE_HEIGHT":       &c.Layout.NodeHeight,
		"LAYOUT_MIN_NODE_WIDTH":    &c.Layout.MinNodeWidth,
		"LAYOUT_CHAR_WIDTH":        &c.Layout.CharWidth,
		"LAYOUT_NODE_PADDING":      &c.Layout.NodePadding,
	}
	for key, dst := range floats {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s%s", EnvPrefix, key)
		}
		*dst = f
	}
	return nil
}
