package render

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"theway/internal/language"
	"theway/internal/snippet"
)

// Shape selects how a snippet is laid out.
type Shape uint8

const (
	// ShapeSegmented is the header + body form.
	ShapeSegmented Shape = iota
	// ShapeLegacy is the single header line, code, footer and rule form.
	ShapeLegacy
)

// String returns the string representation of Shape.
func (s Shape) String() string {
	switch s {
	case ShapeSegmented:
		return "segmented"
	case ShapeLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// ParseShape converts a string to Shape.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(s) {
	case "", "segmented":
		return ShapeSegmented, nil
	case "legacy":
		return ShapeLegacy, nil
	default:
		return ShapeSegmented, fmt.Errorf("invalid shape: %q (expected: segmented|legacy)", s)
	}
}

// FallbackWidth is used for the legacy rule when the terminal width is
// unknown.
const FallbackWidth = 80

// Renderer builds runs for snippets.
type Renderer struct {
	Theme       Theme
	Highlighter Highlighter       // nil: code is always plain
	Languages   snippet.Languages // marker colors
	Logger      *zap.Logger
}

// NewRenderer returns a Renderer. A nil logger is replaced by a no-op one.
func NewRenderer(theme Theme, hl Highlighter, langs snippet.Languages, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{Theme: theme, Highlighter: hl, Languages: langs, Logger: logger}
}

// Render lays out s in the given shape. width only matters for ShapeLegacy.
func (r *Renderer) Render(s snippet.Snippet, shape Shape, width int) []Run {
	if shape == ShapeLegacy {
		return r.Legacy(s, width)
	}
	return r.Segmented(s)
}

// Segmented renders
//
//	■ #<index>. <description> | <language> :<tag1>:<tag2>:
//
//	<code>
//
// with the marker in the language color, then a single reset run.
func (r *Renderer) Segmented(s snippet.Snippet) []Run {
	runs := make([]Run, 0, 8)
	runs = append(runs,
		Styled(snippet.Box+" ", Style{Fg: r.languageColor(s.Language)}),
		Styled(fmt.Sprintf("#%d. %s ", s.Index, s.Description), r.Theme.Main),
		Styled(fmt.Sprintf("| %s ", s.Language), r.Theme.Accent),
		Styled(fmt.Sprintf(":%s:\n", strings.Join(s.Tags, ":")), r.Theme.Tag),
		Plain("\n"),
	)
	runs = append(runs, r.code(s)...)
	return append(runs, ResetRun())
}

// Legacy renders
//
//	#<index>. <description>
//	<code>
//	<language> | <tag1>, <tag2> | <source>
//	-----
//
// where the rule is half of width (FallbackWidth when width <= 0).
func (r *Renderer) Legacy(s snippet.Snippet, width int) []Run {
	if width <= 0 {
		width = FallbackWidth
	}
	runs := make([]Run, 0, 6)
	runs = append(runs, Styled(fmt.Sprintf("#%d. %s\n", s.Index, s.Description), r.Theme.Main))
	runs = append(runs, r.code(s)...)
	runs = append(runs,
		Styled(fmt.Sprintf("%s | %s | %s\n", s.Language, strings.Join(s.Tags, ", "), s.Source), r.Theme.Accent),
		Plain(strings.Repeat("-", width/2)+"\n"),
		ResetRun(),
	)
	return runs
}

// code highlights the snippet body. Any highlighter failure degrades to the
// raw code as one plain run. The body always ends with a newline.
func (r *Renderer) code(s snippet.Snippet) []Run {
	if s.Code == "" {
		return nil
	}
	var runs []Run
	if r.Highlighter != nil {
		hl, err := r.Highlighter.Highlight(s.Code, s.Extension())
		if err != nil {
			r.logger().Debug("highlight fallback",
				zap.Uint64("index", s.Index),
				zap.String("extension", s.Extension()),
				zap.Error(err))
		} else {
			runs = hl
		}
	}
	if len(runs) == 0 {
		runs = []Run{Plain(s.Code)}
	}
	if !strings.HasSuffix(Text(runs), "\n") {
		runs = append(runs, Plain("\n"))
	}
	return runs
}

func (r *Renderer) languageColor(name string) Color {
	if r.Languages != nil {
		if l, ok := r.Languages.Lookup(name); ok && l.Color != "" {
			return Color(l.Color)
		}
	}
	return Color(language.DefaultColor)
}

func (r *Renderer) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// RenderAll renders snippets concurrently. The result keeps input order.
func (r *Renderer) RenderAll(ctx context.Context, snippets []snippet.Snippet, shape Shape, width int) ([][]Run, error) {
	out := make([][]Run, len(snippets))
	if len(snippets) == 0 {
		return out, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.GOMAXPROCS(0), len(snippets)))
	for i := range snippets {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// слоты уникальны для каждой горутины, мьютекс не нужен
			out[i] = r.Render(snippets[i], shape, width)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
