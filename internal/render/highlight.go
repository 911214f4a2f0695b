package render

import (
	"errors"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var (
	// ErrNoGrammar means no lexer is registered for an extension.
	ErrNoGrammar = errors.New("no grammar for extension")
	// ErrNoTheme means the requested code style does not exist.
	ErrNoTheme = errors.New("unknown code style")
)

// HighlightError reports a grammar or theme resolution failure. Renderer
// never lets it escape: the code is shown unstyled instead.
type HighlightError struct {
	Extension string
	Theme     string
	Err       error
}

func (e *HighlightError) Error() string {
	if e.Theme != "" {
		return fmt.Sprintf("highlight: style %q: %v", e.Theme, e.Err)
	}
	return fmt.Sprintf("highlight %s: %v", e.Extension, e.Err)
}

func (e *HighlightError) Unwrap() error { return e.Err }

// Highlighter colors code. ext is a file extension with its leading dot.
type Highlighter interface {
	Highlight(code, ext string) ([]Run, error)
}

// Chroma is a Highlighter backed by chroma lexers and styles.
type Chroma struct {
	style *chroma.Style
}

// NewChroma returns a highlighter using the named chroma style. An unknown
// name yields a highlighter with chroma's fallback style and a
// *HighlightError the caller may log.
func NewChroma(styleName string) (*Chroma, error) {
	if styleName == "" {
		styleName = DefaultCodeStyle
	}
	if st, ok := styles.Registry[styleName]; ok {
		return &Chroma{style: st}, nil
	}
	return &Chroma{style: styles.Fallback}, &HighlightError{Theme: styleName, Err: ErrNoTheme}
}

// StyleNames lists the available code styles.
func StyleNames() []string {
	return styles.Names()
}

// Highlight tokenizes code with the lexer registered for ext.
func (c *Chroma) Highlight(code, ext string) ([]Run, error) {
	lexer := lexers.Match("snippet" + ext)
	if lexer == nil {
		return nil, &HighlightError{Extension: ext, Err: ErrNoGrammar}
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return nil, &HighlightError{Extension: ext, Err: err}
	}
	var runs []Run
	for tok := it(); tok != chroma.EOF; tok = it() {
		runs = appendRun(runs, Styled(tok.Value, c.styleFor(tok.Type)))
	}
	return runs, nil
}

// styleFor maps a chroma style entry to a run style. Backgrounds are left to
// the terminal.
func (c *Chroma) styleFor(tt chroma.TokenType) Style {
	entry := c.style.Get(tt)
	var st Style
	if entry.Colour.IsSet() {
		st.Fg = Color(entry.Colour.String())
	}
	st.Bold = entry.Bold == chroma.Yes
	st.Italic = entry.Italic == chroma.Yes
	st.Underline = entry.Underline == chroma.Yes
	return st
}
