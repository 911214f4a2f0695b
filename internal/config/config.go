// Package config loads the user configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"theway/internal/language"
	"theway/internal/render"
)

// App names the configuration and data directories.
const App = "theway"

// FileName is the configuration file inside the config directory.
const FileName = App + ".toml"

// Config mirrors theway.toml.
type Config struct {
	Store     StoreConfig     `toml:"store"`
	Theme     ThemeConfig     `toml:"theme"`
	Display   DisplayConfig   `toml:"display"`
	Languages LanguagesConfig `toml:"languages"`
}

type StoreConfig struct {
	// Path of the SQLite database; empty selects the data directory.
	Path string `toml:"path"`
}

// ThemeConfig holds style strings in render.ParseStyle syntax. Empty values
// keep the built-in style.
type ThemeConfig struct {
	Main   string `toml:"main"`
	Accent string `toml:"accent"`
	Tag    string `toml:"tag"`
	Code   string `toml:"code"` // chroma style name
}

type DisplayConfig struct {
	WidthFallback int    `toml:"width_fallback"`
	Shape         string `toml:"shape"`
}

type LanguagesConfig struct {
	// File is an extra language table merged over the built-in one.
	File string `toml:"file"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Theme:   ThemeConfig{Code: render.DefaultCodeStyle},
		Display: DisplayConfig{WidthFallback: render.FallbackWidth, Shape: render.ShapeSegmented.String()},
	}
}

// Dir returns $XDG_CONFIG_HOME/theway, falling back to ~/.config/theway.
func Dir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/theway, falling back to ~/.local/share/theway.
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, App), nil
}

// DefaultPath returns the location of theway.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the file at path over the defaults. An empty path selects
// DefaultPath, and only then does a missing file yield the defaults.
// Relative paths inside the file resolve against its directory.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if !explicit {
				return Default(), nil
			}
			return Default(), fmt.Errorf("config %s: %w", path, err)
		}
		return Default(), fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Default(), fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Display.WidthFallback < 0 {
		return Default(), fmt.Errorf("%s: invalid [display].width_fallback %d: must not be negative", path, cfg.Display.WidthFallback)
	}

	base := filepath.Dir(path)
	cfg.Store.Path = resolve(base, cfg.Store.Path)
	cfg.Languages.File = resolve(base, cfg.Languages.File)
	return cfg, nil
}

func resolve(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return filepath.Join(base, p)
}

// StorePath returns the database location.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	return filepath.Join(dir, App+".db"), nil
}

// RenderTheme builds the render theme from the configured styles.
func (c Config) RenderTheme() (render.Theme, error) {
	theme := render.DefaultTheme()
	fields := []struct {
		key   string
		value string
		dst   *render.Style
	}{
		{"main", c.Theme.Main, &theme.Main},
		{"accent", c.Theme.Accent, &theme.Accent},
		{"tag", c.Theme.Tag, &theme.Tag},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		st, err := render.ParseStyle(f.value)
		if err != nil {
			return render.Theme{}, fmt.Errorf("invalid [theme].%s: %w", f.key, err)
		}
		*f.dst = st
	}
	if c.Theme.Code != "" {
		theme.Code = c.Theme.Code
	}
	return theme, nil
}

// Shape returns the configured layout.
func (c Config) Shape() (render.Shape, error) {
	return render.ParseShape(c.Display.Shape)
}

// Width returns the configured fallback terminal width.
func (c Config) Width() int {
	if c.Display.WidthFallback <= 0 {
		return render.FallbackWidth
	}
	return c.Display.WidthFallback
}

// LanguageTable returns the built-in table merged with the configured file.
func (c Config) LanguageTable() (*language.Table, error) {
	table := language.Default()
	if c.Languages.File == "" {
		return table, nil
	}
	extra, err := language.Load(c.Languages.File)
	if err != nil {
		return nil, err
	}
	return table.Merge(extra), nil
}
