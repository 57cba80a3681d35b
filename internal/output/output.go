// Package output delivers recognized text to the desktop, either by
// simulating keystrokes with an external tool or by writing to stdout.
package output

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prismworks/prism-dictation/internal/config"
)

// Sink receives text as it is recognized. Type replaces the last
// deletePrevChars characters previously typed with text, which is how
// revised partial hypotheses are corrected in place.
type Sink interface {
	Setup() error
	Type(deletePrevChars int, text string) error
	Teardown()
}

// New builds the configured sink. Tool processes are not probed here;
// a missing binary surfaces on first use and is logged, not fatal.
func New(cfg config.OutputConfig, log *slog.Logger) (Sink, error) {
	if cfg.Mode == "stdout" {
		return &stdoutSink{w: os.Stdout}, nil
	}
	switch cfg.Tool {
	case "xdotool":
		return &toolSink{tool: xdotool{}, log: log}, nil
	case "ydotool":
		return &toolSink{tool: ydotool{}, log: log}, nil
	case "wtype":
		return &toolSink{tool: wtype{}, log: log}, nil
	case "dotool":
		return newDotool("dotool", log), nil
	case "dotoolc":
		return newDotool("dotoolc", log), nil
	case "stdout":
		return &stdoutSink{w: os.Stdout}, nil
	case "exec":
		return newExecSink(cfg.Command, log)
	}
	return nil, fmt.Errorf("unknown output tool %q", cfg.Tool)
}

// Diff computes the keystrokes that turn prev into next: how many
// trailing characters of prev to delete, and the text to type after.
// Counts are in runes since one backspace removes one character.
func Diff(prev, next string) (deletePrev int, tail string) {
	p := []rune(prev)
	n := []rune(next)
	common := 0
	for common < len(p) && common < len(n) && p[common] == n[common] {
		common++
	}
	return len(p) - common, string(n[common:])
}
