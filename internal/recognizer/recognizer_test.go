package recognizer

import (
	"log/slog"
	"testing"

	"github.com/prismworks/prism-dictation/internal/config"
)

func TestMockReleasesScriptedEvents(t *testing.T) {
	m := NewMock()
	m.Script(
		Event{Kind: Partial, Text: "hello"},
		Event{Kind: Final, Text: "hello world"},
	)

	if _, ok := m.Poll(); ok {
		t.Fatal("expected no events before audio arrives")
	}

	if err := m.Accept([]byte{0, 0}); err != nil {
		t.Fatal(err)
	}
	ev, ok := m.Poll()
	if !ok || ev.Kind != Partial || ev.Text != "hello" {
		t.Fatalf("got %+v ok=%v, want partial hello", ev, ok)
	}

	if err := m.Accept([]byte{0, 0}); err != nil {
		t.Fatal(err)
	}
	ev, ok = m.Poll()
	if !ok || ev.Kind != Final || ev.Text != "hello world" {
		t.Fatalf("got %+v ok=%v, want final hello world", ev, ok)
	}
	if m.Accepted() != 2 {
		t.Fatalf("accepted = %d, want 2", m.Accepted())
	}
}

func TestMockFlushPromotesPartial(t *testing.T) {
	m := NewMock()
	m.Script(Event{Kind: Partial, Text: "unfinished"})
	_ = m.Accept([]byte{0, 0})

	ev, ok := m.Flush()
	if !ok || ev.Kind != Final || ev.Text != "unfinished" {
		t.Fatalf("got %+v ok=%v, want final unfinished", ev, ok)
	}
	if _, ok := m.Flush(); ok {
		t.Fatal("second flush should produce nothing")
	}
}

func TestMockResetDiscardsPending(t *testing.T) {
	m := NewMock()
	m.Script(Event{Kind: Partial, Text: "dropped"})
	_ = m.Accept([]byte{0, 0})

	m.Reset()
	if _, ok := m.Poll(); ok {
		t.Fatal("reset should discard pending events")
	}
	if _, ok := m.Flush(); ok {
		t.Fatal("reset should leave nothing to flush")
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New(config.RecognizerConfig{Mode: "telepathy"}, config.ModelConfig{}, 44100, slog.Default())
	if err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}

func TestNewMockMode(t *testing.T) {
	r, err := New(config.RecognizerConfig{Mode: "mock"}, config.ModelConfig{}, 44100, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*Mock); !ok {
		t.Fatalf("got %T, want *Mock", r)
	}
}
