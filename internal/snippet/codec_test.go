package snippet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"

	"theway/internal/language"
)

func roundTripCases(t *testing.T) map[string]Snippet {
	t.Helper()
	base := sample(t)

	noTags := base
	noTags.Tags = nil

	emptyCode := base
	emptyCode.Code = ""

	unknown, _ := New(42, "mystery", "klingon", "a b c", day(1999, 12, 31), day(2000, 1, 1), "qapla'", langs)

	withSource := base
	withSource.Source = "https://example.com/gist"

	html := base
	html.Code = "if a < b && c > d {\n\treturn \"<html>\"\n}\n"

	zero := Snippet{}

	return map[string]Snippet{
		"sample":      base,
		"no tags":     noTags,
		"empty code":  emptyCode,
		"unknown":     unknown,
		"with source": withSource,
		"html chars":  html,
		"zero":        zero,
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	for name, s := range roundTripCases(t) {
		t.Run(name, func(t *testing.T) {
			data, err := MarshalBinary(s)
			if err != nil {
				t.Fatalf("MarshalBinary: %v", err)
			}
			got, err := UnmarshalBinary(data)
			if err != nil {
				t.Fatalf("UnmarshalBinary: %v", err)
			}
			if diff := cmp.Diff(s, got, snippetCmp); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if got.Date.Nanosecond() != s.Date.Nanosecond() {
				t.Errorf("nanoseconds lost: %d != %d", got.Date.Nanosecond(), s.Date.Nanosecond())
			}
		})
	}
}

func TestBinaryLegacySchema(t *testing.T) {
	s := sample(t)
	s.Source = "stackoverflow"
	data, err := marshalLegacy(s)
	if err != nil {
		t.Fatalf("marshalLegacy: %v", err)
	}
	got, err := UnmarshalBinary(data)
	if err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got.Source != "stackoverflow" {
		t.Errorf("Source = %q", got.Source)
	}
	if !got.Updated.Equal(got.Date) {
		t.Errorf("legacy Updated = %v, want Date %v", got.Updated, got.Date)
	}
	if got.Extension() != ".rs" || got.Index != s.Index {
		t.Errorf("legacy decode lost fields: %+v", got)
	}
}

func TestBinaryDecodeErrors(t *testing.T) {
	valid, err := MarshalBinary(sample(t))
	if err != nil {
		t.Fatal(err)
	}
	mustPack := func(v any) []byte {
		b, err := msgpack.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}

	tests := []struct {
		name   string
		data   []byte
		reason string // empty: only check ErrDecode
	}{
		{"empty", nil, ReasonEmpty},
		{"truncated", valid[:len(valid)/2], ""},
		{"one byte", valid[:1], ""},
		{"not an array", mustPack("hello"), ReasonCorrupt},
		{"never used byte", []byte{0xc1}, ReasonCorrupt},
		{"unknown schema", mustPack([]any{uint16(9), 1, "x"}), ReasonUnknownSchema},
		{"short layout", mustPack([]any{SchemaCurrent, 1, "x"}), ReasonLayout},
		{"legacy arity on current schema", mustPack([]any{SchemaCurrent, 1, "d", "go", "", ".go", []string{}, time.Now(), ""}), ReasonLayout},
		{"wrong field type", mustPack([]any{SchemaCurrent, "one", "d", "go", "", ".go", []string{}, time.Now(), time.Now(), ""}), ReasonCorrupt},
		{"trailing bytes", append(append([]byte{}, valid...), 0xc0), ReasonTrailing},
		{"empty array", mustPack([]any{}), ReasonLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalBinary(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrDecode) {
				t.Errorf("error %v does not match ErrDecode", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not *DecodeError", err)
			}
			if tt.reason != "" && de.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", de.Reason, tt.reason)
			}
		})
	}
}

func TestStreamRoundTrip(t *testing.T) {
	cases := roundTripCases(t)
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewEncoder(&buf).Encode(s); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, errs := DecodeAll(&buf, false)
			if len(errs) > 0 {
				t.Fatalf("DecodeAll: %v", errs)
			}
			if len(got) != 1 {
				t.Fatalf("got %d records, want 1", len(got))
			}
			if diff := cmp.Diff(s, got[0], snippetCmp); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStreamConcatenated(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	var want []Snippet
	for i := uint64(1); i <= 3; i++ {
		s, _ := New(i, "snippet", "go", "t", day(2023, 1, int(i)), day(2023, 2, 1), "x := 1", langs)
		want = append(want, s)
		if err := enc.Encode(s); err != nil {
			t.Fatal(err)
		}
	}
	if enc.Count() != 3 {
		t.Errorf("Count = %d", enc.Count())
	}
	if strings.HasPrefix(buf.String(), "[") || strings.Contains(buf.String(), "}\n{") || strings.Contains(buf.String(), "},{") {
		t.Errorf("records must be appended bare: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "}{") {
		t.Errorf("expected back-to-back objects: %s", buf.String())
	}
	got, errs := DecodeAll(&buf, false)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	if diff := cmp.Diff(want, got, snippetCmp); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamSkipsMalformedRecord(t *testing.T) {
	input := `{"index":1,"description":"a","language":"go","code":"x","tags":[],"date":"2023-01-01T00:00:00Z","updated":"2023-01-01T00:00:00Z"}
{"index":"two","description":"b","language":"go","code":"y"}
{"index":3,"description":"c","language":"go"}
[1,2,3]
{"index":4,"description":"d","language":"go","code":"z","date":"2023-01-02T00:00:00Z","updated":"2023-01-03T00:00:00Z"}`

	var (
		indices []uint64
		failed  []int
	)
	for s, err := range Decode(strings.NewReader(input)) {
		if err != nil {
			var ie *ImportError
			if !errors.As(err, &ie) {
				t.Fatalf("error %T is not *ImportError", err)
			}
			if !errors.Is(err, ErrImport) {
				t.Errorf("error does not match ErrImport")
			}
			failed = append(failed, ie.Record)
			continue
		}
		indices = append(indices, s.Index)
	}
	if diff := cmp.Diff([]uint64{1, 4}, indices); diff != "" {
		t.Errorf("decoded indices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, failed); diff != "" {
		t.Errorf("failed records mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamSyntaxErrorEndsSequence(t *testing.T) {
	input := `{"index":1,"description":"a","language":"go","code":"x"} {"index":2,"descr`
	var (
		ok   int
		errs []error
	)
	for _, err := range Decode(strings.NewReader(input)) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ok++
	}
	if ok != 1 {
		t.Errorf("decoded %d records before the error, want 1", ok)
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	var ie *ImportError
	if !errors.As(errs[0], &ie) || ie.Record != 1 {
		t.Errorf("unexpected error %v", errs[0])
	}
}

func TestStreamStopsWhenCallerBreaks(t *testing.T) {
	r := &countingReader{r: strings.NewReader(strings.Repeat(`{"description":"a","language":"go","code":"x"}`, 1000))}
	n := 0
	for range Decode(r) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("n = %d", n)
	}
	if r.n >= 1000*40 {
		t.Errorf("decoder read the whole input (%d bytes) after break", r.n)
	}
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestStreamDefaults(t *testing.T) {
	now := time.Date(2024, 7, 7, 7, 7, 7, 7, time.UTC)
	input := `{"description":"a","language":"Python","code":"print(1)"}
{"description":"b","language":"go","code":"","date":"2021-05-05T00:00:00Z","source":"blog"}`
	got, errs := DecodeAll(strings.NewReader(input), false, WithLanguages(langs), WithClock(func() time.Time { return now }))
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records", len(got))
	}

	first := got[0]
	if first.Index != 0 || first.Tags != nil {
		t.Errorf("defaults not applied: %+v", first)
	}
	if first.Language != "python" {
		t.Errorf("Language = %q, want normalized python", first.Language)
	}
	if first.Extension() != ".py" {
		t.Errorf("Extension = %q, want derived .py", first.Extension())
	}
	if !first.Date.Equal(now) || !first.Updated.Equal(now) {
		t.Errorf("missing timestamps must default to now: %v %v", first.Date, first.Updated)
	}

	legacy := got[1]
	if legacy.Source != "blog" {
		t.Errorf("Source = %q", legacy.Source)
	}
	if !legacy.Updated.Equal(legacy.Date) {
		t.Errorf("legacy record Updated = %v, want Date %v", legacy.Updated, legacy.Date)
	}
}

func TestStreamNormalizesLanguage(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ext  string
	}{
		{"rust", "rust", ".rs"},
		{" Rust ", "rust", ".rs"},
		{"GO", "go", ".go"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			input := fmt.Sprintf(`{"description":"d","language":%q,"code":"x"}`, tt.raw)
			got, errs := DecodeAll(strings.NewReader(input), false, WithLanguages(langs))
			if len(errs) > 0 || len(got) != 1 {
				t.Fatalf("DecodeAll = %v, %v", got, errs)
			}
			if got[0].Language != tt.want || got[0].Extension() != tt.ext {
				t.Errorf("decoded %q as %q %q, want %q %q", tt.raw, got[0].Language, got[0].Extension(), tt.want, tt.ext)
			}
		})
	}
}

func TestStreamUnknownSchema(t *testing.T) {
	input := `{"schema":7,"description":"a","language":"go","code":"x"}`
	_, errs := DecodeAll(strings.NewReader(input), true)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
}

func TestStreamWithoutLanguagesUsesDefaultExtension(t *testing.T) {
	input := `{"description":"a","language":"go","code":"x"}`
	got, errs := DecodeAll(strings.NewReader(input), false)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	if got[0].Extension() != language.DefaultExtension {
		t.Errorf("Extension = %q", got[0].Extension())
	}
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, io.ErrShortWrite
	}
	w.after--
	return len(p), nil
}

func TestEncoderExportError(t *testing.T) {
	enc := NewEncoder(&failingWriter{after: 1})
	s := sample(t)
	if err := enc.Encode(s); err != nil {
		t.Fatalf("first Encode: %v", err)
	}
	err := enc.Encode(s)
	if !errors.Is(err, ErrExport) {
		t.Fatalf("err = %v, want ErrExport", err)
	}
	if !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("cause lost: %v", err)
	}
	var ee *ExportError
	if errors.As(err, &ee) && ee.Index != s.Index {
		t.Errorf("Index = %d", ee.Index)
	}
	if enc.Count() != 1 {
		t.Errorf("Count = %d, want 1", enc.Count())
	}
}

func TestExportImportExample(t *testing.T) {
	date := time.Date(2023, 1, 1, 10, 30, 0, 999, time.UTC)
	s, _ := New(1, "add two numbers", "rust", "math demo", date, date, "fn add(a,b){a+b}", langs)

	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(s); err != nil {
		t.Fatal(err)
	}
	got, errs := DecodeAll(&buf, false)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	if diff := cmp.Diff(s, got[0], snippetCmp); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got[0].Index != 1 || !got[0].Date.Equal(date) || !got[0].Updated.Equal(date) {
		t.Errorf("identity fields changed: %+v", got[0])
	}
}
