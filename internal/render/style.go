// Package render turns snippets into ordered lists of styled runs and writes
// those runs to a terminal.
//
// Rendering never touches escape sequences: Segmented and Legacy build []Run,
// and Emit is the only place where runs become terminal output.
package render

import (
	"fmt"
	"strings"
)

// Color is a terminal color: "" for the terminal default, "#rrggbb" for true
// color or an ANSI palette index such as "6".
type Color string

// Style is the display style of one run.
type Style struct {
	Fg        Color
	Bg        Color
	Bold      bool
	Italic    bool
	Underline bool
	Faint     bool
}

// IsZero reports whether s is the terminal default style.
func (s Style) IsZero() bool {
	return s == Style{}
}

// Run is a contiguous span of text shown in one style. A reset run carries
// no text and clears any style still active on the terminal.
type Run struct {
	Text  string
	Style Style
	Reset bool
}

// Styled returns a run of text in style.
func Styled(text string, style Style) Run {
	return Run{Text: text, Style: style}
}

// Plain returns an unstyled run.
func Plain(text string) Run {
	return Run{Text: text}
}

// ResetRun returns the style reset run.
func ResetRun() Run {
	return Run{Reset: true}
}

// Text concatenates the text of runs, dropping styles.
func Text(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// appendRun appends r, merging it into the previous run when both share a
// style.
func appendRun(runs []Run, r Run) []Run {
	if r.Text == "" && !r.Reset {
		return runs
	}
	if n := len(runs); n > 0 && !r.Reset && !runs[n-1].Reset && runs[n-1].Style == r.Style {
		runs[n-1].Text += r.Text
		return runs
	}
	return append(runs, r)
}

// Theme holds the styles used for snippet headers and the name of the
// chroma style used for code.
type Theme struct {
	Main   Style
	Accent Style
	Tag    Style
	Code   string
}

// DefaultCodeStyle is the chroma style used when none is configured.
const DefaultCodeStyle = "monokai"

// DefaultTheme returns the built-in theme.
func DefaultTheme() Theme {
	return Theme{
		Main:   Style{Fg: "#e6e6e6", Bold: true},
		Accent: Style{Fg: "#66d9ef"},
		Tag:    Style{Fg: "#75715e", Faint: true},
		Code:   DefaultCodeStyle,
	}
}

// ParseStyle parses a style spec such as "bold #ff8800" or "italic 6 on #202020".
// Words: bold, italic, underline, faint; a color; "on <color>" for background.
func ParseStyle(spec string) (Style, error) {
	var st Style
	fields := strings.Fields(spec)
	for i := 0; i < len(fields); i++ {
		switch f := strings.ToLower(fields[i]); f {
		case "bold":
			st.Bold = true
		case "italic":
			st.Italic = true
		case "underline":
			st.Underline = true
		case "faint", "dim":
			st.Faint = true
		case "on":
			if i+1 >= len(fields) {
				return Style{}, fmt.Errorf("style %q: missing background color after \"on\"", spec)
			}
			i++
			c, err := parseColor(fields[i])
			if err != nil {
				return Style{}, fmt.Errorf("style %q: %w", spec, err)
			}
			st.Bg = c
		default:
			c, err := parseColor(f)
			if err != nil {
				return Style{}, fmt.Errorf("style %q: %w", spec, err)
			}
			st.Fg = c
		}
	}
	return st, nil
}

func parseColor(s string) (Color, error) {
	if strings.HasPrefix(s, "#") {
		if len(s) != 7 && len(s) != 4 {
			return "", fmt.Errorf("bad hex color %q", s)
		}
		for _, r := range s[1:] {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return "", fmt.Errorf("bad hex color %q", s)
			}
		}
		return Color(strings.ToLower(s)), nil
	}
	n := 0
	if s == "" {
		return "", fmt.Errorf("empty color")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("unknown style word or color %q", s)
		}
		n = n*10 + int(r-'0')
		if n > 255 {
			return "", fmt.Errorf("ANSI color %q out of range", s)
		}
	}
	return Color(s), nil
}
