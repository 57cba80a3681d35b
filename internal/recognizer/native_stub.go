//go:build !vosk

package recognizer

import (
	"log/slog"

	"github.com/prismworks/prism-dictation/internal/config"
)

// NativeAvailable reports whether the vosk backend is compiled in.
func NativeAvailable() bool { return false }

func newNative(model config.ModelConfig, sampleRate int, log *slog.Logger) (Recognizer, error) {
	return nil, ErrNativeUnavailable
}
