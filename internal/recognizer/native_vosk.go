//go:build vosk

package recognizer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/prismworks/prism-dictation/internal/config"
)

// NativeAvailable reports whether the vosk backend is compiled in.
func NativeAvailable() bool { return true }

type nativeRecognizer struct {
	model   *vosk.VoskModel
	rec     *vosk.VoskRecognizer
	pending []Event
	partial string
	log     *slog.Logger
}

type voskResult struct {
	Partial string `json:"partial"`
	Text    string `json:"text"`
}

func newNative(model config.ModelConfig, sampleRate int, log *slog.Logger) (Recognizer, error) {
	if _, err := os.Stat(model.Dir); err != nil {
		return nil, fmt.Errorf("vosk model dir %q: %w (download a model from https://alphacephei.com/vosk/models)", model.Dir, err)
	}
	vosk.SetLogLevel(-1)

	log.Info("loading vosk model", slog.String("dir", model.Dir))
	m, err := vosk.NewModel(model.Dir)
	if err != nil {
		return nil, fmt.Errorf("load vosk model: %w", err)
	}

	var rec *vosk.VoskRecognizer
	if model.GrammarFile != "" {
		grammar, err := os.ReadFile(model.GrammarFile)
		if err != nil {
			m.Free()
			return nil, fmt.Errorf("read grammar file: %w", err)
		}
		rec, err = vosk.NewRecognizerGrm(m, float64(sampleRate), string(grammar))
		if err != nil {
			m.Free()
			return nil, fmt.Errorf("create vosk recognizer: %w", err)
		}
	} else {
		rec, err = vosk.NewRecognizer(m, float64(sampleRate))
		if err != nil {
			m.Free()
			return nil, fmt.Errorf("create vosk recognizer: %w", err)
		}
	}
	log.Info("vosk model loaded")

	return &nativeRecognizer{model: m, rec: rec, log: log}, nil
}

func (r *nativeRecognizer) Accept(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	if r.rec.AcceptWaveform(pcm) != 0 {
		if text, ok := decodeVosk(r.rec.Result(), false); ok {
			r.pending = append(r.pending, Event{Kind: Final, Text: text})
		}
		r.partial = ""
		return nil
	}
	// Identical consecutive partials are dropped; vosk repeats them for
	// every chunk while the hypothesis is stable.
	if text, ok := decodeVosk(r.rec.PartialResult(), true); ok && text != r.partial {
		r.partial = text
		r.pending = append(r.pending, Event{Kind: Partial, Text: text})
	}
	return nil
}

func (r *nativeRecognizer) Poll() (Event, bool) {
	if len(r.pending) == 0 {
		return Event{}, false
	}
	ev := r.pending[0]
	r.pending = r.pending[1:]
	return ev, true
}

func (r *nativeRecognizer) Flush() (Event, bool) {
	r.partial = ""
	if text, ok := decodeVosk(r.rec.FinalResult(), false); ok {
		return Event{Kind: Final, Text: text}, true
	}
	return Event{}, false
}

func (r *nativeRecognizer) Reset() {
	// FinalResult flushes the feature pipeline; discarding its output
	// leaves the recognizer clean for the next utterance.
	_, _ = decodeVosk(r.rec.FinalResult(), false)
	r.pending = nil
	r.partial = ""
}

func (r *nativeRecognizer) Close() error {
	r.rec.Free()
	r.model.Free()
	return nil
}

func decodeVosk(raw string, partial bool) (string, bool) {
	// Immediately after a resume vosk can emit an empty result; skip it.
	if raw == "" {
		return "", false
	}
	var res voskResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return "", false
	}
	if partial {
		return res.Partial, res.Partial != ""
	}
	return res.Text, res.Text != ""
}
