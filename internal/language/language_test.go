package language

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	tab := Default()
	if tab.Len() == 0 {
		t.Fatal("builtin table is empty")
	}
	cases := map[string]string{
		"rust":   ".rs",
		"go":     ".go",
		"Python": ".py",
		" bash ": ".sh",
	}
	for name, want := range cases {
		l, ok := tab.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) missed", name)
			continue
		}
		if l.Extension != want {
			t.Errorf("Lookup(%q).Extension = %q, want %q", name, l.Extension, want)
		}
	}
}

func TestResolveFallback(t *testing.T) {
	l := Default().Resolve("brainfudge")
	if l.Extension != DefaultExtension || l.Color != DefaultColor {
		t.Errorf("Resolve on miss = %+v", l)
	}

	var nilTable *Table
	if _, ok := nilTable.Lookup("go"); ok {
		t.Error("nil table must not match")
	}
	if got := nilTable.Resolve("go").Extension; got != DefaultExtension {
		t.Errorf("nil table Resolve = %q", got)
	}
}

func TestParse(t *testing.T) {
	tab, err := Parse(`
[Nim]
extension = "nim"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	l, ok := tab.Lookup("nim")
	if !ok {
		t.Fatal("nim missing")
	}
	if l.Extension != ".nim" {
		t.Errorf("extension = %q, want .nim", l.Extension)
	}
	if l.Color != DefaultColor {
		t.Errorf("color = %q, want default", l.Color)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[go\nextension = 1"},
		{"missing extension", "[go]\ncolor = \"#fff\""},
		{"unknown key", "[go]\nextension = \".go\"\nicon = \"x\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.data); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.data)
			}
		})
	}
}

func TestLoadAndMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "langs.toml")
	if err := os.WriteFile(path, []byte("[rust]\nextension = \".rust\"\ncolor = \"#000000\"\n[nim]\nextension = \".nim\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	user, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	merged := Default().Merge(user)
	if got := merged.Resolve("rust").Extension; got != ".rust" {
		t.Errorf("override not applied: %q", got)
	}
	if got := merged.Resolve("go").Extension; got != ".go" {
		t.Errorf("builtin lost: %q", got)
	}
	if got := merged.Resolve("nim").Extension; got != ".nim" {
		t.Errorf("new entry lost: %q", got)
	}
	if merged.Len() != Default().Len()+1 {
		t.Errorf("Len = %d", merged.Len())
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Default().Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}
