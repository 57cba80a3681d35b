package textproc

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prismworks/prism-dictation/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, textCfg config.TextConfig, numCfg config.NumbersConfig) *Pipeline {
	t.Helper()
	p, err := New(textCfg, numCfg, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestProcessStripsNewlines(t *testing.T) {
	p := newPipeline(t, config.TextConfig{}, config.NumbersConfig{})
	got, ok := p.Process("hello\nworld", true)
	if !ok || got != "hello world" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestProcessEmptySuppresses(t *testing.T) {
	p := newPipeline(t, config.TextConfig{}, config.NumbersConfig{})
	if _, ok := p.Process("  \n ", true); ok {
		t.Fatal("whitespace-only input should be suppressed")
	}
}

func TestProcessNumbers(t *testing.T) {
	p := newPipeline(t, config.TextConfig{}, config.NumbersConfig{AsDigits: true, UseSeparator: true})
	got, ok := p.Process("three million five hundred and sixty second", true)
	if !ok || got != "3,000,562nd" {
		t.Fatalf("got %q ok=%v, want 3,000,562nd", got, ok)
	}
}

func TestProcessNumbersDisabled(t *testing.T) {
	p := newPipeline(t, config.TextConfig{}, config.NumbersConfig{})
	got, ok := p.Process("twenty one", true)
	if !ok || got != "twenty one" {
		t.Fatalf("got %q ok=%v, want words untouched", got, ok)
	}
}

func TestFullSentence(t *testing.T) {
	p := newPipeline(t, config.TextConfig{FullSentence: true}, config.NumbersConfig{})
	got, ok := p.Process("hello there", true)
	if !ok || got != "Hello there." {
		t.Fatalf("got %q ok=%v, want Hello there.", got, ok)
	}
	// Partials get the capital but not the closing period.
	got, ok = p.Process("hello there", false)
	if !ok || got != "Hello there" {
		t.Fatalf("partial: got %q ok=%v, want Hello there", got, ok)
	}
}

func TestRunOnPunctuation(t *testing.T) {
	p := newPipeline(t, config.TextConfig{FullSentence: true, PunctuateFromPrevious: 2.0}, config.NumbersConfig{})
	base := time.Now()
	p.now = func() time.Time { return base }

	got, ok := p.Process("first thought", true)
	if !ok || got != "First thought." {
		t.Fatalf("got %q ok=%v", got, ok)
	}
	p.Commit()

	p.now = func() time.Time { return base.Add(1 * time.Second) }
	got, ok = p.Process("and another", true)
	if !ok || got != ", and another." {
		t.Fatalf("run-on: got %q ok=%v", got, ok)
	}
	p.Commit()

	p.now = func() time.Time { return base.Add(10 * time.Second) }
	got, ok = p.Process("much later", true)
	if !ok || got != "Much later." {
		t.Fatalf("after window: got %q ok=%v", got, ok)
	}
}

func TestHookRewrites(t *testing.T) {
	p := newPipeline(t, config.TextConfig{HookCommand: "tr a-z A-Z"}, config.NumbersConfig{})
	got, ok := p.Process("make it loud", true)
	if !ok || got != "MAKE IT LOUD" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestHookEmptyOutputSuppresses(t *testing.T) {
	p := newPipeline(t, config.TextConfig{HookCommand: "true"}, config.NumbersConfig{})
	if _, ok := p.Process("drop this", true); ok {
		t.Fatal("empty hook output should suppress the utterance")
	}
}

func TestHookFailureKeepsInput(t *testing.T) {
	p := newPipeline(t, config.TextConfig{HookCommand: "false"}, config.NumbersConfig{})
	got, ok := p.Process("keep this", true)
	if !ok || got != "keep this" {
		t.Fatalf("got %q ok=%v, want input preserved", got, ok)
	}
}

func TestHookBadCommand(t *testing.T) {
	if _, err := New(config.TextConfig{HookCommand: "unterminated 'quote"}, config.NumbersConfig{}, discardLogger()); err == nil {
		t.Fatal("expected a parse error")
	}
}
