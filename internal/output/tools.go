package output

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
)

// typingTool builds the argv for one delete pass and one type pass. Tools
// in this family run one short-lived process per call and need no setup.
type typingTool interface {
	deleteArgv(chars int) []string
	typeArgv(text string) []string
}

type toolSink struct {
	tool typingTool
	log  *slog.Logger
}

func (s *toolSink) Setup() error { return nil }
func (s *toolSink) Teardown()    {}

func (s *toolSink) Type(deletePrevChars int, text string) error {
	if deletePrevChars > 0 {
		if err := runTool(s.tool.deleteArgv(deletePrevChars)); err != nil {
			return err
		}
	}
	if text == "" {
		return nil
	}
	return runTool(s.tool.typeArgv(text))
}

func runTool(argv []string) error {
	out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

type xdotool struct{}

func (xdotool) deleteArgv(chars int) []string {
	argv := []string{"xdotool", "key", "--"}
	for i := 0; i < chars; i++ {
		argv = append(argv, "BackSpace")
	}
	return argv
}

func (xdotool) typeArgv(text string) []string {
	return []string{"xdotool", "type", "--clearmodifiers", "--", text}
}

type ydotool struct{}

func (ydotool) deleteArgv(chars int) []string {
	// 14 is the linux keycode for backspace; :1/:0 are press and release.
	argv := []string{"ydotool", "key", "--key-delay", "3", "--"}
	for i := 0; i < chars; i++ {
		argv = append(argv, "14:1", "14:0")
	}
	return argv
}

func (ydotool) typeArgv(text string) []string {
	// The low delay keeps typing snappy compared to the slow default.
	return []string{"ydotool", "type", "--next-delay", "5", "--", text}
}

type wtype struct{}

func (wtype) deleteArgv(chars int) []string {
	argv := []string{"wtype", "-s", "5"}
	for i := 0; i < chars; i++ {
		argv = append(argv, "-k", "backSpace")
	}
	return argv
}

func (wtype) typeArgv(text string) []string {
	return []string{"wtype", text}
}

// stdoutSink writes text directly, using \b for deletions so a terminal
// shows corrections in place.
type stdoutSink struct {
	w io.Writer
}

func (s *stdoutSink) Setup() error { return nil }
func (s *stdoutSink) Teardown()    {}

func (s *stdoutSink) Type(deletePrevChars int, text string) error {
	if deletePrevChars > 0 {
		if _, err := io.WriteString(s.w, strings.Repeat("\x08", deletePrevChars)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(s.w, text)
	return err
}

// execSink hands each update to a user command: the delete count is
// appended as the final argument and the text arrives on stdin.
type execSink struct {
	argv []string
	log  *slog.Logger
}

func newExecSink(command string, log *slog.Logger) (*execSink, error) {
	parser := shellwords.NewParser()
	argv, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse output command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("output command is empty")
	}
	return &execSink{argv: argv, log: log}, nil
}

func (s *execSink) Setup() error { return nil }
func (s *execSink) Teardown()    {}

func (s *execSink) Type(deletePrevChars int, text string) error {
	argv := append(append([]string(nil), s.argv...), strconv.Itoa(deletePrevChars))
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
