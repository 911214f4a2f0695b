package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"theway/internal/snippet"
	"theway/internal/trace"
)

// Snippets stores snippets in a KV using the binary codec.
type Snippets struct {
	kv     KV
	langs  snippet.Languages
	logger *zap.Logger
	now    func() time.Time
}

// Option configures Snippets.
type Option func(*Snippets)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Snippets) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Snippets) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSnippets returns a repository over kv. langs drives extension
// derivation on add, edit and import.
func NewSnippets(kv KV, langs snippet.Languages, opts ...Option) *Snippets {
	s := &Snippets{kv: kv, langs: langs, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying KV.
func (r *Snippets) Close() error {
	return r.kv.Close()
}

// Add validates d and stores it as a new snippet under a fresh index.
func (r *Snippets) Add(ctx context.Context, d snippet.Draft) (snippet.Snippet, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStore, "store.add")
	defer span.End("")

	if err := d.Validate(); err != nil {
		return snippet.Snippet{}, err
	}
	index, err := r.kv.NextKey(ctx)
	if err != nil {
		return snippet.Snippet{}, err
	}
	s, known := snippet.Create(index, d, r.now(), r.langs)
	r.warnUnknown(s, known)
	if err := r.Put(ctx, s); err != nil {
		return snippet.Snippet{}, err
	}
	span.WithExtra("index", strconv.FormatUint(index, 10))
	return s, nil
}

// Put writes s under its own index, replacing any previous record.
func (r *Snippets) Put(ctx context.Context, s snippet.Snippet) error {
	data, err := snippet.MarshalBinary(s)
	if err != nil {
		return err
	}
	trace.Point(ctx, trace.ScopeRecord, "record.encode", strconv.Itoa(len(data))+" bytes")
	return r.kv.Put(ctx, s.Index, data)
}

// Get returns the snippet stored under index.
func (r *Snippets) Get(ctx context.Context, index uint64) (snippet.Snippet, error) {
	data, err := r.kv.Get(ctx, index)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return snippet.Snippet{}, fmt.Errorf("snippet #%d: %w", index, ErrNotFound)
		}
		return snippet.Snippet{}, err
	}
	s, err := snippet.UnmarshalBinary(data)
	if err != nil {
		return snippet.Snippet{}, fmt.Errorf("snippet #%d: %w", index, err)
	}
	return s, nil
}

// Edit applies d to the snippet stored under index and stores the result.
func (r *Snippets) Edit(ctx context.Context, index uint64, d snippet.Draft) (snippet.Snippet, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStore, "store.edit")
	defer span.End(strconv.FormatUint(index, 10))

	old, err := r.Get(ctx, index)
	if err != nil {
		return snippet.Snippet{}, err
	}
	s, known := old.Edit(d, r.now(), r.langs)
	r.warnUnknown(s, known)
	if err := r.Put(ctx, s); err != nil {
		return snippet.Snippet{}, err
	}
	return s, nil
}

// Delete removes the snippet stored under index.
func (r *Snippets) Delete(ctx context.Context, index uint64) error {
	if err := r.kv.Delete(ctx, index); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("snippet #%d: %w", index, ErrNotFound)
		}
		return err
	}
	return nil
}

// All returns every stored snippet in index order. A record that fails to
// decode aborts the listing.
func (r *Snippets) All(ctx context.Context) ([]snippet.Snippet, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStore, "store.all")
	var out []snippet.Snippet
	err := r.kv.Scan(ctx, func(key uint64, value []byte) error {
		s, err := snippet.UnmarshalBinary(value)
		if err != nil {
			return fmt.Errorf("snippet #%d: %w", key, err)
		}
		trace.Point(ctx, trace.ScopeRecord, "record.decode", strconv.FormatUint(key, 10))
		out = append(out, s)
		return nil
	})
	span.WithExtra("count", strconv.Itoa(len(out))).End("")
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Find returns the stored snippets matching q.
func (r *Snippets) Find(ctx context.Context, q snippet.Query) ([]snippet.Snippet, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return q.Apply(all), nil
}

// Export writes the snippets matching q to w as a JSON stream and returns
// the number of records written.
func (r *Snippets) Export(ctx context.Context, w io.Writer, q snippet.Query) (int, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStore, "store.export")
	defer span.End("")

	selected, err := r.Find(ctx, q)
	if err != nil {
		return 0, err
	}
	enc := snippet.NewEncoder(w)
	for _, s := range selected {
		if err := ctx.Err(); err != nil {
			return enc.Count(), err
		}
		if err := enc.Encode(s); err != nil {
			return enc.Count(), err
		}
		trace.Point(ctx, trace.ScopeRecord, "record.export", strconv.FormatUint(s.Index, 10))
	}
	span.WithExtra("count", strconv.Itoa(enc.Count()))
	return enc.Count(), nil
}

// ImportOptions control Import.
type ImportOptions struct {
	// SkipInvalid logs and skips malformed records instead of stopping at
	// the first one.
	SkipInvalid bool
	// Progress, if set, is called after every record, stored or skipped.
	Progress func(ImportEvent)
}

// ImportEvent reports one record handled by Import.
type ImportEvent struct {
	Record  int    // zero-based ordinal in the stream
	Index   uint64 // assigned index, 0 when skipped
	Snippet snippet.Snippet
	Err     error // set when the record was skipped
}

// ImportReport summarizes an import.
type ImportReport struct {
	Imported []uint64 // indices assigned to imported snippets
	Skipped  []error  // *snippet.ImportError for every skipped record
}

// Import reads a JSON stream and stores every record under a fresh index.
// Records stored before a failure stay stored.
func (r *Snippets) Import(ctx context.Context, rd io.Reader, opts ImportOptions) (ImportReport, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStore, "store.import")
	defer span.End("")

	var report ImportReport
	notify := func(ev ImportEvent) {
		if opts.Progress != nil {
			opts.Progress(ev)
		}
	}
	seq := snippet.Decode(rd, snippet.WithLanguages(r.langs), snippet.WithClock(r.now))
	record := -1
	for s, err := range seq {
		record++
		if err != nil {
			if !opts.SkipInvalid {
				return report, err
			}
			r.logger.Warn("skipping malformed record", zap.Error(err))
			report.Skipped = append(report.Skipped, err)
			notify(ImportEvent{Record: record, Err: err})
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		index, err := r.kv.NextKey(ctx)
		if err != nil {
			return report, err
		}
		s.Index = index
		if _, known := snippet.DeriveExtension(s.Language, r.langs); !known {
			r.warnUnknown(s, false)
		}
		if err := r.Put(ctx, s); err != nil {
			return report, err
		}
		report.Imported = append(report.Imported, index)
		notify(ImportEvent{Record: record, Index: index, Snippet: s})
	}
	span.WithExtra("imported", strconv.Itoa(len(report.Imported))).
		WithExtra("skipped", strconv.Itoa(len(report.Skipped)))
	return report, nil
}

func (r *Snippets) warnUnknown(s snippet.Snippet, known bool) {
	if known {
		return
	}
	diag := &snippet.UnknownLanguageError{Language: s.Language, Extension: s.Extension()}
	r.logger.Warn(diag.Error(), zap.Uint64("index", s.Index))
}
