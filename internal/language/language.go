// Package language holds the table that maps a language name to the file
// extension used for highlighting and the color of its marker block.
package language

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultExtension is used for languages missing from the table.
	DefaultExtension = ".txt"
	// DefaultColor is the marker color for languages missing from the table.
	DefaultColor = "#808080"
)

//go:embed languages.toml
var builtinTable string

// Language describes one entry of the table.
type Language struct {
	Name      string
	Extension string
	Color     string
}

// Fallback returns the entry used when name has no table entry.
func Fallback(name string) Language {
	return Language{Name: name, Extension: DefaultExtension, Color: DefaultColor}
}

// Table is an immutable name -> Language mapping. The zero value is an
// empty table and is safe to use.
type Table struct {
	entries map[string]Language
}

type tableEntry struct {
	Extension string `toml:"extension"`
	Color     string `toml:"color"`
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(builtinTable)
	if err != nil {
		// встроенная таблица проверяется тестами
		panic(fmt.Sprintf("language: builtin table: %v", err))
	}
	return t
}

// Parse decodes a TOML table where every top-level key is a language name.
func Parse(data string) (*Table, error) {
	raw := make(map[string]tableEntry)
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse language table: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in language table: %v", undecoded)
	}
	t := &Table{entries: make(map[string]Language, len(raw))}
	for name, e := range raw {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, errors.New("language table: empty language name")
		}
		ext := strings.TrimSpace(e.Extension)
		if ext == "" {
			return nil, fmt.Errorf("language table: %s: missing extension", key)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		color := strings.TrimSpace(e.Color)
		if color == "" {
			color = DefaultColor
		}
		t.entries[key] = Language{Name: key, Extension: ext, Color: color}
	}
	return t, nil
}

// Load reads a TOML language table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read language table: %w", err)
	}
	t, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Merge returns a new table holding t's entries overridden by other's.
func (t *Table) Merge(other *Table) *Table {
	out := &Table{entries: make(map[string]Language, t.Len()+other.Len())}
	if t != nil {
		for k, v := range t.entries {
			out.entries[k] = v
		}
	}
	if other != nil {
		for k, v := range other.entries {
			out.entries[k] = v
		}
	}
	return out
}

// Lookup returns the entry for name. Names are matched case-insensitively.
func (t *Table) Lookup(name string) (Language, bool) {
	if t == nil {
		return Language{}, false
	}
	l, ok := t.entries[strings.ToLower(strings.TrimSpace(name))]
	return l, ok
}

// Resolve is Lookup with the fallback entry applied on a miss.
func (t *Table) Resolve(name string) Language {
	if l, ok := t.Lookup(name); ok {
		return l
	}
	return Fallback(name)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Names returns the sorted language names.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.entries))
	for k := range t.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
