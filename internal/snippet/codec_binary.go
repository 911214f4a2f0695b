package snippet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Binary schema versions. Records are msgpack arrays whose first element is
// the schema; the rest of the layout is fixed per version.
const (
	// SchemaLegacy records carry Source and no Updated timestamp.
	SchemaLegacy uint16 = 1
	// SchemaCurrent is written by MarshalBinary.
	SchemaCurrent uint16 = 2
)

// recordV1 is the legacy layout.
type recordV1 struct {
	_msgpack struct{} `msgpack:",as_array"` //nolint:unused

	Schema      uint16
	Index       uint64
	Description string
	Language    string
	Code        string
	Extension   string
	Tags        []string
	Date        time.Time
	Source      string
}

const recordV1Fields = 9

// recordV2 is the current layout. Changing it requires a new schema number.
type recordV2 struct {
	_msgpack struct{} `msgpack:",as_array"` //nolint:unused

	Schema      uint16
	Index       uint64
	Description string
	Language    string
	Code        string
	Extension   string
	Tags        []string
	Date        time.Time
	Updated     time.Time
	Source      string
}

const recordV2Fields = 10

// MarshalBinary encodes s in the compact store format (SchemaCurrent).
func MarshalBinary(s Snippet) ([]byte, error) {
	rec := recordV2{
		Schema:      SchemaCurrent,
		Index:       s.Index,
		Description: s.Description,
		Language:    s.Language,
		Code:        s.Code,
		Extension:   s.extension,
		Tags:        s.Tags,
		Date:        s.Date,
		Updated:     s.Updated,
		Source:      s.Source,
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(&rec); err != nil {
		return nil, fmt.Errorf("snippet: encode #%d: %w", s.Index, err)
	}
	return buf.Bytes(), nil
}

// marshalLegacy writes the SchemaLegacy layout. Only tests and migrations
// need it; the store always writes the current schema.
func marshalLegacy(s Snippet) ([]byte, error) {
	rec := recordV1{
		Schema:      SchemaLegacy,
		Index:       s.Index,
		Description: s.Description,
		Language:    s.Language,
		Code:        s.Code,
		Extension:   s.extension,
		Tags:        s.Tags,
		Date:        s.Date,
		Source:      s.Source,
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(&rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a record written by MarshalBinary or by the legacy
// schema. Legacy records get Updated = Date. Every failure is a *DecodeError.
func UnmarshalBinary(data []byte) (Snippet, error) {
	if len(data) == 0 {
		return Snippet{}, &DecodeError{Reason: ReasonEmpty, Err: io.ErrUnexpectedEOF}
	}

	// Сначала читаем только заголовок: длину массива и версию схемы.
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return Snippet{}, decodeFailure(0, err)
	}
	if n < 1 {
		return Snippet{}, &DecodeError{Reason: ReasonLayout, Err: fmt.Errorf("record has %d fields", n)}
	}
	schema, err := dec.DecodeUint16()
	if err != nil {
		return Snippet{}, decodeFailure(0, err)
	}

	switch schema {
	case SchemaLegacy:
		var rec recordV1
		if err := decodeRecord(data, schema, n, recordV1Fields, &rec); err != nil {
			return Snippet{}, err
		}
		s := Snippet{
			Index:       rec.Index,
			Description: rec.Description,
			Language:    rec.Language,
			Tags:        nilIfEmpty(rec.Tags),
			Code:        rec.Code,
			Source:      rec.Source,
			extension:   rec.Extension,
		}
		s.Date, s.Updated = orderTimes(rec.Date, rec.Date)
		return s, nil
	case SchemaCurrent:
		var rec recordV2
		if err := decodeRecord(data, schema, n, recordV2Fields, &rec); err != nil {
			return Snippet{}, err
		}
		return Snippet{
			Index:       rec.Index,
			Description: rec.Description,
			Language:    rec.Language,
			Tags:        nilIfEmpty(rec.Tags),
			Date:        rec.Date.UTC(),
			Updated:     rec.Updated.UTC(),
			Code:        rec.Code,
			Source:      rec.Source,
			extension:   rec.Extension,
		}, nil
	default:
		return Snippet{}, &DecodeError{Schema: schema, Reason: ReasonUnknownSchema}
	}
}

func decodeRecord(data []byte, schema uint16, got, want int, out any) error {
	if got != want {
		return &DecodeError{
			Schema: schema,
			Reason: ReasonLayout,
			Err:    fmt.Errorf("got %d fields, want %d", got, want),
		}
	}
	r := bytes.NewReader(data)
	if err := msgpack.NewDecoder(r).Decode(out); err != nil {
		return decodeFailure(schema, err)
	}
	if r.Len() > 0 {
		return &DecodeError{Schema: schema, Reason: ReasonTrailing, Err: fmt.Errorf("%d bytes left", r.Len())}
	}
	return nil
}

func decodeFailure(schema uint16, err error) error {
	reason := ReasonCorrupt
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		reason = ReasonTruncated
	}
	return &DecodeError{Schema: schema, Reason: reason, Err: err}
}

func nilIfEmpty(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	return tags
}
