// Package textproc turns raw recognizer text into the text that gets
// typed: number rewriting, sentence shaping and the user hook command.
package textproc

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-shellwords"
	"github.com/prismworks/prism-dictation/internal/config"
	"github.com/prismworks/prism-dictation/internal/numbers"
)

// Pipeline applies the configured text transformations in a fixed order:
// newline stripping, number rewriting, sentence shaping, then the user
// hook. The same chain runs for partial and final hypotheses so the
// progressively typed text converges on the committed text.
type Pipeline struct {
	cfg      config.TextConfig
	asDigits bool
	numOpts  numbers.Options
	hookArgv []string
	log      *slog.Logger

	now      func() time.Time
	lastDone time.Time
}

func New(textCfg config.TextConfig, numCfg config.NumbersConfig, log *slog.Logger) (*Pipeline, error) {
	p := &Pipeline{
		cfg:      textCfg,
		asDigits: numCfg.AsDigits,
		numOpts: numbers.Options{
			UseSeparator: numCfg.UseSeparator,
			MinValue:     numCfg.MinValue,
			NoSuffix:     numCfg.NoSuffix,
		},
		log: log,
		now: time.Now,
	}
	if textCfg.HookCommand != "" {
		parser := shellwords.NewParser()
		argv, err := parser.Parse(textCfg.HookCommand)
		if err != nil {
			return nil, fmt.Errorf("parse hook command: %w", err)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("hook command is empty")
		}
		p.hookArgv = argv
	}
	return p, nil
}

// Process transforms one hypothesis. final marks the authoritative text
// for the utterance. The second return is false when the utterance should
// be suppressed entirely (no output, nothing committed).
func (p *Pipeline) Process(text string, final bool) (string, bool) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", false
	}

	if p.asDigits {
		text = numbers.Transform(text, p.numOpts)
	}

	if p.runOn() {
		// Close enough to the previous utterance to read as one sentence.
		text = ", " + text
	} else if p.cfg.FullSentence {
		text = capitalize(text)
	}
	if p.cfg.FullSentence && final && !strings.HasSuffix(text, ".") {
		text += "."
	}

	if p.hookArgv != nil {
		text = p.runHook(text)
		if strings.TrimSpace(text) == "" {
			return "", false
		}
	}
	return text, true
}

// Commit records that an utterance was delivered, which drives the run-on
// punctuation window for the next one.
func (p *Pipeline) Commit() {
	p.lastDone = p.now()
}

func (p *Pipeline) runOn() bool {
	if p.cfg.PunctuateFromPrevious <= 0 || p.lastDone.IsZero() {
		return false
	}
	window := time.Duration(p.cfg.PunctuateFromPrevious * float64(time.Second))
	return p.now().Sub(p.lastDone) < window
}

// runHook pipes text through the user command. The hook's stdout replaces
// the text; a failing hook leaves the text unchanged so dictation keeps
// working while the user debugs their script.
func (p *Pipeline) runHook(text string) string {
	cmd := exec.Command(p.hookArgv[0], p.hookArgv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		p.log.Warn("text hook failed",
			slog.String("command", p.hookArgv[0]),
			slog.String("error", err.Error()),
			slog.String("stderr", strings.TrimSpace(errOut.String())))
		return text
	}
	return strings.TrimRight(out.String(), "\n")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
