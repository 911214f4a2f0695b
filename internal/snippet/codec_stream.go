package snippet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"
)

// jsonRecord is one record of the bulk export format. Required fields are
// pointers so that a missing field can be told apart from an empty one.
type jsonRecord struct {
	Schema      uint16     `json:"schema,omitempty"`
	Index       uint64     `json:"index"`
	Description *string    `json:"description"`
	Language    *string    `json:"language"`
	Code        *string    `json:"code"`
	Extension   *string    `json:"extension"`
	Tags        []string   `json:"tags"`
	Date        *time.Time `json:"date,omitempty"`
	Updated     *time.Time `json:"updated,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// Encoder appends snippets to a JSON stream, one object per Encode call,
// with no enclosing array and no separators.
type Encoder struct {
	w   io.Writer
	buf bytes.Buffer
	n   int
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode appends s to the stream. A write failure is an *ExportError; the
// records written before it are left intact.
func (e *Encoder) Encode(s Snippet) error {
	date, updated := s.Date, s.Updated
	rec := jsonRecord{
		Schema:      SchemaCurrent,
		Index:       s.Index,
		Description: &s.Description,
		Language:    &s.Language,
		Code:        &s.Code,
		Extension:   &s.extension,
		Tags:        s.Tags,
		Date:        &date,
		Updated:     &updated,
		Source:      s.Source,
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	e.buf.Reset()
	enc := json.NewEncoder(&e.buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&rec); err != nil {
		return &ExportError{Index: s.Index, Err: err}
	}
	// json.Encoder terminates every value with '\n'; records are written bare.
	data := bytes.TrimSuffix(e.buf.Bytes(), []byte{'\n'})
	if _, err := e.w.Write(data); err != nil {
		return &ExportError{Index: s.Index, Err: err}
	}
	e.n++
	return nil
}

// Count returns the number of records written so far.
func (e *Encoder) Count() int {
	return e.n
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	langs Languages
	now   func() time.Time
}

// WithLanguages derives the extension of records that lack one from langs.
func WithLanguages(langs Languages) DecodeOption {
	return func(c *decodeConfig) { c.langs = langs }
}

// WithClock sets the time used for records missing a date.
func WithClock(now func() time.Time) DecodeOption {
	return func(c *decodeConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// Decode returns a lazy sequence of the records read from r. Every element is
// either a snippet or an *ImportError.
//
// A record that is valid JSON but not a valid snippet yields an error and
// decoding goes on with the next record. A JSON syntax error yields one error
// and ends the sequence, since the stream cannot be resynchronized after it.
// Stopping the range loop stops reading; r is never closed by Decode.
func Decode(r io.Reader, opts ...DecodeOption) iter.Seq2[Snippet, error] {
	cfg := decodeConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(yield func(Snippet, error) bool) {
		dec := json.NewDecoder(r)
		for record := 0; ; record++ {
			offset := dec.InputOffset()
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(Snippet{}, &ImportError{Record: record, Offset: offset, Err: err})
				return
			}
			s, err := cfg.decodeRecord(raw)
			if err != nil {
				if !yield(Snippet{}, &ImportError{Record: record, Offset: offset, Err: err}) {
					return
				}
				continue
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// DecodeAll collects every record of r. It stops at the first error unless
// skip is set, in which case failed records are returned separately.
func DecodeAll(r io.Reader, skip bool, opts ...DecodeOption) ([]Snippet, []error) {
	var (
		out  []Snippet
		errs []error
	)
	for s, err := range Decode(r, opts...) {
		if err != nil {
			errs = append(errs, err)
			if !skip {
				break
			}
			continue
		}
		out = append(out, s)
	}
	return out, errs
}

func (c *decodeConfig) decodeRecord(raw json.RawMessage) (Snippet, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Snippet{}, errors.New("record is not an object")
	}
	var rec jsonRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Snippet{}, err
	}

	var missing []string
	if rec.Description == nil {
		missing = append(missing, "description")
	}
	if rec.Language == nil {
		missing = append(missing, "language")
	}
	if rec.Code == nil {
		missing = append(missing, "code")
	}
	if len(missing) > 0 {
		return Snippet{}, fmt.Errorf("missing fields %v", missing)
	}

	schema := rec.Schema
	if schema == 0 {
		schema = SchemaCurrent
		if rec.Updated == nil && rec.Source != "" {
			schema = SchemaLegacy
		}
	}
	if schema != SchemaLegacy && schema != SchemaCurrent {
		return Snippet{}, fmt.Errorf("unknown schema %d", schema)
	}

	s := Snippet{
		Index:       rec.Index,
		Description: *rec.Description,
		Language:    NormalizeLanguage(*rec.Language),
		Tags:        nilIfEmpty(rec.Tags),
		Code:        *rec.Code,
		Source:      rec.Source,
	}
	if rec.Extension != nil {
		s.extension = *rec.Extension
	} else {
		s.extension, _ = DeriveExtension(s.Language, c.langs)
	}

	now := c.now()
	date := now
	if rec.Date != nil {
		date = *rec.Date
	}
	updated := now
	switch {
	case schema == SchemaLegacy:
		updated = date
	case rec.Updated != nil:
		updated = *rec.Updated
	}
	s.Date, s.Updated = orderTimes(date, updated)
	return s, nil
}
