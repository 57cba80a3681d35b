// Package recognizer abstracts the streaming speech engine. Audio is fed
// in as raw PCM chunks; the engine yields partial hypotheses followed by
// one final text per utterance.
package recognizer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prismworks/prism-dictation/internal/config"
)

// EventKind tags recognition output.
type EventKind int

const (
	// Partial is an advisory hypothesis, superseded by the next event for
	// the same utterance.
	Partial EventKind = iota
	// Final is the authoritative text for one utterance.
	Final
)

// Event is one piece of recognizer output.
type Event struct {
	Kind EventKind
	Text string
}

// ErrNativeUnavailable indicates the binary was built without the vosk
// backend (build tag "vosk").
var ErrNativeUnavailable = errors.New("recognizer: native vosk backend not compiled in")

// Recognizer is a streaming transcriber. Implementations are not safe for
// concurrent use; the session controller is the only caller.
type Recognizer interface {
	// Accept feeds one chunk of raw PCM.
	Accept(pcm []byte) error
	// Poll returns the next pending event, if any.
	Poll() (Event, bool)
	// Flush forces the final hypothesis for audio fed so far.
	Flush() (Event, bool)
	// Reset discards any in-flight hypothesis without producing output.
	Reset()
	Close() error
}

// New selects a backend from configuration. Loading a native model is
// synchronous and can take several seconds on large models, which is why
// sessions are suspended and resumed rather than torn down and re-begun.
func New(cfg config.RecognizerConfig, model config.ModelConfig, sampleRate int, log *slog.Logger) (Recognizer, error) {
	switch cfg.Mode {
	case "exec":
		return newExec(cfg.Command, model, sampleRate, log)
	case "native":
		return newNative(model, sampleRate, log)
	case "mock":
		return NewMock(), nil
	}
	return nil, fmt.Errorf("unknown recognizer mode %q", cfg.Mode)
}
