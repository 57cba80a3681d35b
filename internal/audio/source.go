// Package audio owns the external capture process that records raw PCM
// from the microphone. The recorder is an external utility (parec or sox,
// or any configured command) writing signed 16-bit little-endian mono
// samples to its stdout.
package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/prismworks/prism-dictation/internal/config"
)

// ErrClosed is returned by Read once the capture process has exited and
// all buffered audio has been drained.
var ErrClosed = errors.New("audio: capture stream closed")

// Chunk is a slice of raw PCM with a monotonic sequence index.
type Chunk struct {
	Seq int
	PCM []byte
}

// Source wraps the capture subprocess. It is not safe for concurrent use;
// the session controller is its only caller.
type Source struct {
	cfg    config.AudioConfig
	log    *slog.Logger
	argv   []string
	cmd    *exec.Cmd
	frames chan []byte
	seq    int
}

func NewSource(cfg config.AudioConfig, log *slog.Logger) (*Source, error) {
	argv, err := captureArgv(cfg)
	if err != nil {
		return nil, err
	}
	return &Source{cfg: cfg, log: log, argv: argv}, nil
}

func captureArgv(cfg config.AudioConfig) ([]string, error) {
	switch cfg.Method {
	case "parec":
		argv := []string{
			"parec",
			"--record",
			fmt.Sprintf("--rate=%d", cfg.SampleRate),
			"--channels=1",
		}
		if cfg.PulseDevice != "" {
			argv = append(argv, "--device="+cfg.PulseDevice)
		}
		return append(argv, "--format=s16ne", "--latency=10"), nil
	case "sox":
		return []string{
			"sox", "-q", "-V1", "-d",
			"--buffer", "1000",
			"-r", strconv.Itoa(cfg.SampleRate),
			"-b", "16",
			"-e", "signed-integer",
			"-c", "1",
			"-t", "raw",
			"-L", "-",
		}, nil
	case "exec":
		parser := shellwords.NewParser()
		argv, err := parser.Parse(cfg.Command)
		if err != nil {
			return nil, fmt.Errorf("parse audio command: %w", err)
		}
		if len(argv) == 0 {
			return nil, errors.New("audio command is empty")
		}
		return argv, nil
	}
	return nil, fmt.Errorf("unsupported audio method %q", cfg.Method)
}

// Start launches the capture process and begins buffering its output.
func (s *Source) Start() error {
	if s.cmd != nil {
		return errors.New("audio: source already started")
	}
	cmd := exec.Command(s.argv[0], s.argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("capture stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start capture process %q: %w", s.argv[0], err)
	}

	frames := make(chan []byte, 64)
	go func() {
		defer close(frames)
		buf := make([]byte, 32*1024)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				frames <- append([]byte(nil), buf[:n]...)
			}
			if err != nil {
				if err != io.EOF {
					s.log.Debug("capture read ended", slog.String("error", err.Error()))
				}
				return
			}
		}
	}()

	s.cmd = cmd
	s.frames = frames
	s.log.Debug("capture started", slog.String("command", s.argv[0]))
	return nil
}

// Read returns the next chunk of buffered PCM, waiting up to wait for data
// to arrive. A zero-length chunk with nil error means no audio was ready
// within the window; ErrClosed means the capture process is gone.
func (s *Source) Read(wait time.Duration) (Chunk, error) {
	if s.frames == nil {
		return Chunk{}, ErrClosed
	}

	var data []byte
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case frame, ok := <-s.frames:
		if !ok {
			return Chunk{}, ErrClosed
		}
		data = append(data, frame...)
	case <-timer.C:
		return Chunk{Seq: s.seq}, nil
	}

	// Drain whatever else is already buffered without blocking again.
	for {
		select {
		case frame, ok := <-s.frames:
			if !ok {
				// Deliver what we have; the next Read reports ErrClosed.
				s.seq++
				return Chunk{Seq: s.seq, PCM: data}, nil
			}
			data = append(data, frame...)
		default:
			s.seq++
			return Chunk{Seq: s.seq, PCM: data}, nil
		}
	}
}

// Stop terminates the capture process, leaving no orphan recorder behind.
// Safe to call when not recording.
func (s *Source) Stop() {
	if s.cmd == nil {
		return
	}
	_ = s.cmd.Process.Signal(syscall.SIGINT)

	done := make(chan struct{})
	cmd := s.cmd
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	}

	s.cmd = nil
	s.frames = nil
	s.log.Debug("capture stopped")
}

// Recording reports whether the capture process is currently running.
func (s *Source) Recording() bool {
	return s.cmd != nil
}
