// Package snippet defines the snippet record, its two persistence encodings
// and the filters applied to snippet collections.
//
// A Snippet is a value. Edits produce a new value that keeps the index of the
// original and refreshes Updated; deletion belongs to the store.
//
// The extension is never set directly: it is derived from the language through
// a Languages table when the snippet is built or edited, and restored verbatim
// by the codecs.
package snippet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"

	"theway/internal/language"
)

// Box is the marker printed in front of a snippet header.
const Box = "■"

// Languages resolves a normalized language name to its table entry.
// *language.Table implements it.
type Languages interface {
	Lookup(name string) (language.Language, bool)
}

// Snippet is one recorded piece of code with its metadata.
type Snippet struct {
	Index       uint64
	Description string
	Language    string
	Tags        []string
	Date        time.Time
	Updated     time.Time
	Code        string
	// Source is the free-text attribution carried by legacy records.
	Source string

	extension string
}

// New builds a snippet. tags is split on whitespace. The extension is derived
// from language; known reports whether the language was found in langs.
// New never fails: presence of description and language is the collector's
// concern (see Draft.Validate).
func New(index uint64, description, lang, tags string, date, updated time.Time, code string, langs Languages) (s Snippet, known bool) {
	s = Snippet{
		Index:       index,
		Description: description,
		Language:    NormalizeLanguage(lang),
		Tags:        SplitTags(tags),
		Code:        code,
	}
	s.Date, s.Updated = orderTimes(date, updated)
	s.extension, known = DeriveExtension(s.Language, langs)
	return s, known
}

// Extension returns the file extension derived from the snippet language,
// e.g. ".rs".
func (s Snippet) Extension() string {
	return s.extension
}

// DeriveExtension returns the extension registered for lang, or
// language.DefaultExtension with ok=false when the table has no entry.
// It is total: a nil table behaves as an empty one.
func DeriveExtension(lang string, langs Languages) (ext string, ok bool) {
	if langs != nil {
		if l, found := langs.Lookup(lang); found && l.Extension != "" {
			return l.Extension, true
		}
	}
	return language.DefaultExtension, false
}

// NormalizeLanguage trims and lower-cases a language identifier.
func NormalizeLanguage(lang string) string {
	return cases.Lower(xlang.Und).String(strings.TrimSpace(lang))
}

// SplitTags splits a whitespace separated tag string. An empty or blank string
// yields nil.
func SplitTags(tags string) []string {
	fields := strings.Fields(tags)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// InDateRange reports whether the snippet was recorded in [from, to).
func (s Snippet) InDateRange(from, to time.Time) bool {
	return !s.Date.Before(from) && s.Date.Before(to)
}

// HasTag reports whether tag is one of the snippet tags. Matching is exact
// and case-sensitive.
func (s Snippet) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Header returns the plain text header:
// "■ #<index>. <description> | <language> :<tag1>:<tag2>:\n".
func (s Snippet) Header() string {
	return fmt.Sprintf("%s #%d. %s | %s :%s:\n", Box, s.Index, s.Description, s.Language, strings.Join(s.Tags, ":"))
}

// Draft carries field values collected from a user or a file.
type Draft struct {
	Description string
	Language    string
	// Tags is a whitespace separated list. nil keeps the previous tags on edit.
	Tags *string
	// Date overrides the creation date when non-zero.
	Date time.Time
	// Code replaces the snippet code. nil keeps the previous code on edit.
	Code *string
}

// Validate checks the fields a new snippet cannot do without.
func (d Draft) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	if strings.TrimSpace(d.Language) == "" {
		errs = append(errs, errors.New("language is required"))
	}
	return errors.Join(errs...)
}

// Create builds a new snippet with the given index from a draft. Date
// defaults to now.
func Create(index uint64, d Draft, now time.Time, langs Languages) (Snippet, bool) {
	date := d.Date
	if date.IsZero() {
		date = now
	}
	var tags, code string
	if d.Tags != nil {
		tags = *d.Tags
	}
	if d.Code != nil {
		code = *d.Code
	}
	return New(index, d.Description, d.Language, tags, date, now, code, langs)
}

// Edit returns a copy of s with the non-empty draft fields applied. Tags and
// Code apply whenever set, even to an empty value. The index
// is kept, Updated becomes now (or Date, if the new date lies ahead of now)
// and the extension is derived again from the resulting language.
func (s Snippet) Edit(d Draft, now time.Time, langs Languages) (Snippet, bool) {
	out := s
	out.Tags = append([]string(nil), s.Tags...)
	if d.Description != "" {
		out.Description = d.Description
	}
	if d.Language != "" {
		out.Language = NormalizeLanguage(d.Language)
	}
	if d.Tags != nil {
		out.Tags = SplitTags(*d.Tags)
	}
	if d.Code != nil {
		out.Code = *d.Code
	}
	date := s.Date
	if !d.Date.IsZero() {
		date = d.Date
	}
	out.Date, out.Updated = orderTimes(date, now)
	var known bool
	out.extension, known = DeriveExtension(out.Language, langs)
	return out, known
}

// orderTimes converts both timestamps to UTC and keeps updated >= date.
func orderTimes(date, updated time.Time) (time.Time, time.Time) {
	date, updated = date.UTC(), updated.UTC()
	if updated.Before(date) {
		updated = date
	}
	return date, updated
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return t.UTC(), nil
}
