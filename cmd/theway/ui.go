package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"theway/internal/store"
	"theway/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides whether to draw the progress view on out.
func shouldUseTUI(mode uiMode, out io.Writer) bool {
	f, ok := out.(*os.File)
	switch mode {
	case uiModeOn:
		return ok
	case uiModeOff:
		return false
	default:
		return ok && isTerminal(f)
	}
}

// countingReader tracks how many bytes were consumed.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

type importOutcome struct {
	report store.ImportReport
	err    error
}

// runImportWithUI runs the import in the background and draws its progress.
// size is the input length in bytes, or a negative value when unknown.
func runImportWithUI(ctx context.Context, out io.Writer, repo *store.Snippets, r io.Reader, size int64, opts store.ImportOptions) (store.ImportReport, error) {
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan importOutcome, 1)
	counted := &countingReader{r: r}

	go func() {
		optsCopy := opts
		optsCopy.Progress = func(ev store.ImportEvent) {
			events <- toUIEvent(ev, counted.n.Load(), size)
		}
		report, err := repo.Import(ctx, counted, optsCopy)
		outcomeCh <- importOutcome{report: report, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("importing snippets", events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// модель могла выйти раньше импорта, не блокируем Progress
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}

func toUIEvent(ev store.ImportEvent, read, size int64) ui.Event {
	out := ui.Event{Fraction: -1}
	if size > 0 {
		out.Fraction = float64(read) / float64(size)
	}
	if ev.Err != nil {
		out.Status = ui.StatusSkipped
		out.Label = fmt.Sprintf("record %d: %v", ev.Record, ev.Err)
		return out
	}
	out.Status = ui.StatusDone
	out.Label = fmt.Sprintf("#%d. %s", ev.Index, ev.Snippet.Description)
	return out
}
