package recognizer

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/prismworks/prism-dictation/internal/config"
)

// execRecognizer drives an external engine process over NDJSON: requests
// with base64 PCM (or a control op) on stdin, events on stdout as
// {"partial": ...} / {"text": ...} lines, matching the vosk JSON shape.
type execRecognizer struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	events chan Event
	log    *slog.Logger
}

type execRequest struct {
	PCMBase64 string `json:"pcm_base64,omitempty"`
	Op        string `json:"op,omitempty"` // flush, reset
}

type execEvent struct {
	Partial string `json:"partial"`
	Text    string `json:"text"`
}

func newExec(command string, model config.ModelConfig, sampleRate int, log *slog.Logger) (Recognizer, error) {
	parser := shellwords.NewParser()
	argv, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse recognizer command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("recognizer command is empty")
	}
	argv = append(argv, "--model", model.Dir, "--sample-rate", fmt.Sprint(sampleRate))
	if model.GrammarFile != "" {
		argv = append(argv, "--grammar", model.GrammarFile)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("recognizer stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recognizer stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recognizer process %q: %w", argv[0], err)
	}

	r := &execRecognizer{
		cmd:    cmd,
		stdin:  stdin,
		events: make(chan Event, 16),
		log:    log,
	}
	go r.readEvents(stdout)
	return r, nil
}

func (r *execRecognizer) readEvents(stdout io.Reader) {
	defer close(r.events)
	lastPartial := ""
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev execEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			r.log.Warn("bad recognizer event line", slog.String("error", err.Error()))
			continue
		}
		switch {
		case ev.Text != "":
			lastPartial = ""
			r.events <- Event{Kind: Final, Text: ev.Text}
		case ev.Partial != "" && ev.Partial != lastPartial:
			lastPartial = ev.Partial
			r.events <- Event{Kind: Partial, Text: ev.Partial}
		}
	}
}

func (r *execRecognizer) send(req execRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := r.stdin.Write(data); err != nil {
		return fmt.Errorf("write to recognizer: %w", err)
	}
	return nil
}

func (r *execRecognizer) Accept(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	return r.send(execRequest{PCMBase64: base64.StdEncoding.EncodeToString(pcm)})
}

func (r *execRecognizer) Poll() (Event, bool) {
	select {
	case ev, ok := <-r.events:
		if !ok {
			return Event{}, false
		}
		return ev, true
	default:
		return Event{}, false
	}
}

// Flush asks the engine for the final hypothesis and waits a bounded time
// for it to arrive.
func (r *execRecognizer) Flush() (Event, bool) {
	if err := r.send(execRequest{Op: "flush"}); err != nil {
		r.log.Warn("recognizer flush failed", slog.String("error", err.Error()))
		return Event{}, false
	}
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-r.events:
			if !ok {
				return Event{}, false
			}
			if ev.Kind == Final {
				return ev, true
			}
		case <-deadline:
			return Event{}, false
		}
	}
}

func (r *execRecognizer) Reset() {
	if err := r.send(execRequest{Op: "reset"}); err != nil {
		r.log.Warn("recognizer reset failed", slog.String("error", err.Error()))
	}
	// Drop anything produced before the reset took effect.
	for {
		select {
		case <-r.events:
		default:
			return
		}
	}
}

func (r *execRecognizer) Close() error {
	_ = r.stdin.Close()
	done := make(chan error, 1)
	go func() { done <- r.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		_ = r.cmd.Process.Kill()
		return <-done
	}
}
