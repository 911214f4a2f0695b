package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

func TestProgressModelCountsAndScrolls(t *testing.T) {
	events := make(chan Event)
	m := NewProgressModel("importing", events).(*progressModel)

	for i := range visibleItems + 2 {
		status := StatusDone
		if i == 0 {
			status = StatusSkipped
		}
		m.Update(eventMsg(Event{Label: "snippet " + string(rune('a'+i)), Status: status, Fraction: -1}))
	}
	view := m.View()
	if !strings.Contains(view, "importing (9 imported, 1 skipped)") {
		t.Errorf("header missing counts:\n%s", view)
	}
	if strings.Contains(view, "snippet a") {
		t.Errorf("oldest item not scrolled away:\n%s", view)
	}
	if !strings.Contains(view, "snippet j") {
		t.Errorf("newest item missing:\n%s", view)
	}
	if m.known {
		t.Error("progress bar shown for unknown input size")
	}
}

func TestProgressModelFraction(t *testing.T) {
	m := NewProgressModel("importing", nil).(*progressModel)
	m.Update(eventMsg(Event{Label: "x", Status: StatusDone, Fraction: 1.5}))
	if !m.known || m.percent != 1 {
		t.Errorf("known=%v percent=%v", m.known, m.percent)
	}
}

func TestProgressModelQuitsWhenDone(t *testing.T) {
	m := NewProgressModel("importing", nil).(*progressModel)
	_, cmd := m.Update(doneMsg{})
	if !m.done || cmd == nil {
		t.Fatalf("done=%v cmd=%v", m.done, cmd)
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done did not quit the program")
	}
	if !strings.Contains(m.View(), "done: importing") {
		t.Errorf("view after done:\n%s", m.View())
	}
}

func TestListenForEventEndsOnClose(t *testing.T) {
	events := make(chan Event, 1)
	m := NewProgressModel("importing", events).(*progressModel)
	events <- Event{Label: "a", Status: StatusDone}
	close(events)
	if _, ok := m.listenForEvent()().(eventMsg); !ok {
		t.Error("first message is not an event")
	}
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Error("closed channel did not produce doneMsg")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		value string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a long description", 10, "a long ..."},
		{"abcdef", 3, "abc"},
		{"日本語のテキスト", 7, "日本..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		got := truncate(tt.value, tt.width)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
		}
		if tt.width > 0 && runewidth.StringWidth(got) > tt.width {
			t.Errorf("truncate(%q, %d) is %d columns wide", tt.value, tt.width, runewidth.StringWidth(got))
		}
	}
}
