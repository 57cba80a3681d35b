package output

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// dotoolSink feeds one long-lived dotool (or dotoolc) process over stdin.
// Unlike the per-call tools, dotool reads a command stream, so the process
// lives for the whole listening span and is torn down on suspend or end.
type dotoolSink struct {
	command string
	log     *slog.Logger
	cmd     *exec.Cmd
	stdin   io.WriteCloser
}

func newDotool(command string, log *slog.Logger) *dotoolSink {
	return &dotoolSink{command: command, log: log}
}

func (s *dotoolSink) Setup() error {
	if s.cmd != nil {
		return nil
	}
	cmd := exec.Command(s.command)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%s stdin pipe: %w", s.command, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.command, err)
	}
	if _, err := io.WriteString(stdin, "keydelay 4\nkeyhold 0\ntypedelay 12\ntypehold 0\n"); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("configure %s delays: %w", s.command, err)
	}
	s.cmd = cmd
	s.stdin = stdin
	return nil
}

func (s *dotoolSink) Type(deletePrevChars int, text string) error {
	if s.cmd == nil {
		if err := s.Setup(); err != nil {
			return err
		}
	}
	var b strings.Builder
	if deletePrevChars > 0 {
		b.WriteString("key")
		for i := 0; i < deletePrevChars; i++ {
			b.WriteString(" backspace")
		}
		b.WriteByte('\n')
	}
	if text != "" {
		b.WriteString("type ")
		b.WriteString(text)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return nil
	}
	if _, err := io.WriteString(s.stdin, b.String()); err != nil {
		return fmt.Errorf("write to %s: %w", s.command, err)
	}
	return nil
}

func (s *dotoolSink) Teardown() {
	if s.cmd == nil {
		return
	}
	_ = s.stdin.Close()
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
	s.stdin = nil
}
