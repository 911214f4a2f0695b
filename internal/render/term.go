package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"theway/internal/snippet"
)

// ColorMode controls escape emission.
type ColorMode uint8

const (
	ColorAuto ColorMode = iota // detect from the output
	ColorOn                    // force true color
	ColorOff                   // plain text
)

// ParseColorMode converts the --color flag value.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorAuto, nil
	case "on", "always":
		return ColorOn, nil
	case "off", "never":
		return ColorOff, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode: %q (expected: auto|on|off)", s)
	}
}

// Emitter writes runs to a terminal, turning styles into escape sequences.
type Emitter struct {
	w        io.Writer
	renderer *lipgloss.Renderer
}

// NewEmitter returns an Emitter for w.
func NewEmitter(w io.Writer, mode ColorMode) *Emitter {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case ColorOn:
		r.SetColorProfile(termenv.TrueColor)
	case ColorOff:
		r.SetColorProfile(termenv.Ascii)
	}
	return &Emitter{w: w, renderer: r}
}

// Colored reports whether the emitter produces escape sequences.
func (e *Emitter) Colored() bool {
	return e.renderer.ColorProfile() != termenv.Ascii
}

// Emit writes runs in order. Reset runs only produce output when colors are
// enabled.
func (e *Emitter) Emit(runs []Run) error {
	var sb strings.Builder
	for _, r := range runs {
		if r.Reset {
			if e.Colored() {
				sb.WriteString(termenv.CSI + termenv.ResetSeq + "m")
			}
			continue
		}
		e.writeRun(&sb, r)
	}
	_, err := io.WriteString(e.w, sb.String())
	return err
}

// writeRun styles each line separately: lipgloss pads multi-line blocks to
// a common width, which would alter the code.
func (e *Emitter) writeRun(sb *strings.Builder, r Run) {
	if r.Style.IsZero() || !e.Colored() {
		sb.WriteString(r.Text)
		return
	}
	st := e.style(r.Style)
	lines := strings.Split(r.Text, "\n")
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if line != "" {
			sb.WriteString(st.Render(line))
		}
	}
}

func (e *Emitter) style(s Style) lipgloss.Style {
	st := e.renderer.NewStyle().TabWidth(lipgloss.NoTabConversion)
	if s.Fg != "" {
		st = st.Foreground(lipgloss.Color(string(s.Fg)))
	}
	if s.Bg != "" {
		st = st.Background(lipgloss.Color(string(s.Bg)))
	}
	return st.Bold(s.Bold).Italic(s.Italic).Underline(s.Underline).Faint(s.Faint)
}

// TerminalWidth returns the column count of f, or FallbackWidth when f is not
// a terminal.
func TerminalWidth(f *os.File) int {
	if f == nil {
		return FallbackWidth
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return FallbackWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return FallbackWidth
	}
	return w
}

// Compact returns the plain header of s on one line, truncated to width
// display columns.
func Compact(s snippet.Snippet, width int) string {
	line := strings.TrimRight(s.Header(), "\n")
	if width <= 0 {
		return line
	}
	return runewidth.Truncate(line, width, "…")
}
