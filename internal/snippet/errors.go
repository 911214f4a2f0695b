package snippet

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("snippet: decode failed")
	// ErrImport matches every *ImportError.
	ErrImport = errors.New("snippet: import failed")
	// ErrExport matches every *ExportError.
	ErrExport = errors.New("snippet: export failed")
)

// Reasons reported by DecodeError.
const (
	ReasonEmpty         = "empty payload"
	ReasonTruncated     = "truncated payload"
	ReasonCorrupt       = "corrupt payload"
	ReasonUnknownSchema = "unknown schema"
	ReasonLayout        = "field layout mismatch"
	ReasonTrailing      = "trailing bytes"
)

// DecodeError is returned when a binary record cannot be decoded. It is fatal
// to that one read only.
type DecodeError struct {
	Schema uint16 // 0 when the discriminant itself could not be read
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "snippet: decode: " + e.Reason
	if e.Schema != 0 {
		msg += fmt.Sprintf(" (schema %d)", e.Schema)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) hold.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// ExportError wraps a write failure while appending a record to an export
// stream. Records written before it stay valid.
type ExportError struct {
	Index uint64
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("snippet: export #%d: %v", e.Index, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func (e *ExportError) Is(target error) bool { return target == ErrExport }

// ImportError describes one record of an import stream that could not be
// decoded. Record is the zero-based ordinal of the record in the stream and
// Offset the input byte offset where it started.
type ImportError struct {
	Record int
	Offset int64
	Err    error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("snippet: import record %d (offset %d): %v", e.Record, e.Offset, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

func (e *ImportError) Is(target error) bool { return target == ErrImport }

// UnknownLanguageError is a diagnostic for a language missing from the
// language table. It is never returned as a failure; callers use it to warn.
type UnknownLanguageError struct {
	Language  string
	Extension string // the fallback that was used
}

func (e *UnknownLanguageError) Error() string {
	return fmt.Sprintf("unknown language %q, using %s", e.Language, e.Extension)
}
