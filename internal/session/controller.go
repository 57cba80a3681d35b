// Package session runs the dictation state machine: one long-lived loop
// pulling audio into the recognizer and pushing recognized text through
// the pipeline to the output sink, while reacting to control commands.
package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prismworks/prism-dictation/internal/audio"
	"github.com/prismworks/prism-dictation/internal/config"
	"github.com/prismworks/prism-dictation/internal/control"
	"github.com/prismworks/prism-dictation/internal/history"
	"github.com/prismworks/prism-dictation/internal/output"
	"github.com/prismworks/prism-dictation/internal/recognizer"
	"github.com/prismworks/prism-dictation/internal/textproc"
)

// State of the running session. Idle is not represented: when no session
// process exists there is nothing to hold the state.
type State int

const (
	StateListening State = iota
	StateSuspended
	StateStopping
	StateCancelling
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateSuspended:
		return "suspended"
	case StateStopping:
		return "stopping"
	case StateCancelling:
		return "cancelling"
	}
	return "unknown"
}

// AudioSource is the capture dependency. *audio.Source satisfies it; tests
// substitute a scripted source.
type AudioSource interface {
	Start() error
	Read(wait time.Duration) (audio.Chunk, error)
	Stop()
	Recording() bool
}

// Deps are the collaborators the controller drives. All are exclusively
// owned by the controller once Run starts.
type Deps struct {
	Source AudioSource
	Rec    recognizer.Recognizer
	Pipe   *textproc.Pipeline
	Sink   output.Sink
	Store  *history.Store
	Dump   *audio.Dump
}

// Controller owns the single active session.
type Controller struct {
	cfg       config.Config
	deps      Deps
	log       *slog.Logger
	sessionID string

	state        State
	lastEvent    time.Time
	stopDeadline time.Time

	// Output bookkeeping: typed is what the sink currently shows for
	// this accumulation span, committed the prefix confirmed by finals.
	typed     string
	committed string
	finals    []string

	now func() time.Time
}

func New(cfg config.Config, deps Deps, log *slog.Logger) *Controller {
	return &Controller{
		cfg:       cfg,
		deps:      deps,
		log:       log,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}
}

// ID returns the session identifier used in the history store.
func (c *Controller) ID() string { return c.sessionID }

// Run drives the session until end, cancel, silence timeout or audio
// death. Only resource failures (recorder cannot start) return an error;
// everything else is handled in the loop.
func (c *Controller) Run(ctx context.Context, requests <-chan control.Request) error {
	if err := c.deps.Store.BeginSession(ctx, c.sessionID); err != nil {
		c.log.Warn("history session start failed", slog.String("error", err.Error()))
	}

	if c.cfg.Session.SuspendOnStart {
		c.state = StateSuspended
	} else {
		if err := c.deps.Sink.Setup(); err != nil {
			c.log.Warn("output setup failed", slog.String("error", err.Error()))
		}
		if err := c.deps.Source.Start(); err != nil {
			c.deps.Sink.Teardown()
			return err
		}
		c.state = StateListening
	}
	c.lastEvent = c.now()
	c.log.Info("session started",
		slog.String("session_id", c.sessionID),
		slog.String("state", c.state.String()))

	idle := time.Duration(c.cfg.Session.IdleTime * float64(time.Second))
	if idle <= 0 {
		idle = 100 * time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			c.state = StateStopping
			c.stopDeadline = c.now()
		default:
		}
		c.drainRequests(ctx, requests)

		switch c.state {
		case StateSuspended:
			select {
			case req, ok := <-requests:
				if !ok {
					c.state = StateStopping
					c.stopDeadline = c.now()
					continue
				}
				c.handleRequest(ctx, req)
			case <-time.After(idle):
			case <-ctx.Done():
				c.state = StateStopping
				c.stopDeadline = c.now()
			}
			continue

		case StateCancelling:
			c.log.Info("session cancelled", slog.String("session_id", c.sessionID))
			c.eraseUncommitted()
			c.deps.Rec.Reset()
			c.teardown(ctx)
			return nil

		case StateStopping:
			if c.now().Before(c.stopDeadline) && c.deps.Source.Recording() {
				// Keep draining the recording buffer until the exit delay
				// runs out, so trailing speech is not cut off.
				c.pump(ctx, idle)
				continue
			}
			c.finish(ctx)
			c.teardown(ctx)
			c.log.Info("session ended", slog.String("session_id", c.sessionID))
			return nil
		}

		// Listening.
		c.pump(ctx, idle)

		if c.cfg.Session.Timeout > 0 {
			silence := c.now().Sub(c.lastEvent)
			if silence > time.Duration(c.cfg.Session.Timeout*float64(time.Second)) {
				c.log.Info("silence timeout reached",
					slog.Float64("timeout_sec", c.cfg.Session.Timeout))
				c.beginStop()
			}
		}
	}
}

// pump moves one batch of audio into the recognizer and dispatches any
// resulting events.
func (c *Controller) pump(ctx context.Context, idle time.Duration) {
	chunk, err := c.deps.Source.Read(idle)
	if err != nil {
		// Capture process died. Stop gracefully as if end were called.
		c.log.Warn("audio capture ended", slog.String("error", err.Error()))
		c.beginStop()
		c.stopDeadline = c.now()
		return
	}
	if len(chunk.PCM) > 0 {
		if c.deps.Dump != nil {
			if err := c.deps.Dump.Write(chunk.PCM); err != nil {
				c.log.Warn("wav dump write failed", slog.String("error", err.Error()))
			}
		}
		if err := c.deps.Rec.Accept(chunk.PCM); err != nil {
			c.log.Warn("recognizer rejected audio", slog.String("error", err.Error()))
		}
	}
	for {
		ev, ok := c.deps.Rec.Poll()
		if !ok {
			break
		}
		c.lastEvent = c.now()
		c.handleText(ctx, ev.Text, ev.Kind == recognizer.Final)
	}
}

func (c *Controller) drainRequests(ctx context.Context, requests <-chan control.Request) {
	for {
		select {
		case req, ok := <-requests:
			if !ok {
				c.beginStop()
				return
			}
			c.handleRequest(ctx, req)
		default:
			return
		}
	}
}

func (c *Controller) handleRequest(ctx context.Context, req control.Request) {
	switch req.Cmd {
	case control.CmdStatus:
		req.Reply <- control.Response{OK: true, State: c.state.String()}

	case control.CmdEnd:
		c.beginStop()
		req.Reply <- control.Response{OK: true, State: c.state.String()}

	case control.CmdCancel:
		c.state = StateCancelling
		req.Reply <- control.Response{OK: true, State: c.state.String()}

	case control.CmdSuspend:
		if c.state != StateListening {
			req.Reply <- control.Response{Error: control.ErrCodeNotListening, State: c.state.String()}
			return
		}
		c.suspend(ctx)
		req.Reply <- control.Response{OK: true, State: c.state.String()}

	case control.CmdResume:
		if c.state != StateSuspended {
			req.Reply <- control.Response{Error: control.ErrCodeNotSuspended, State: c.state.String()}
			return
		}
		if err := c.resume(); err != nil {
			req.Reply <- control.Response{Error: err.Error(), State: c.state.String()}
			return
		}
		req.Reply <- control.Response{OK: true, State: c.state.String()}

	default:
		req.Reply <- control.Response{Error: control.ErrCodeUnknown, State: c.state.String()}
	}
}

func (c *Controller) beginStop() {
	if c.state == StateStopping || c.state == StateCancelling {
		return
	}
	c.state = StateStopping
	c.stopDeadline = c.now()
	if c.cfg.Session.DelayExit > 0 && c.deps.Source.Recording() {
		c.stopDeadline = c.now().Add(time.Duration(c.cfg.Session.DelayExit * float64(time.Second)))
	}
}

// suspend stops the recorder and discards the in-flight hypothesis while
// keeping the loaded model in memory, so resume is cheap.
func (c *Controller) suspend(ctx context.Context) {
	c.eraseUncommitted()
	c.deps.Rec.Reset()
	c.deps.Source.Stop()
	c.deps.Sink.Teardown()
	c.typed = ""
	c.committed = ""
	c.finals = nil
	c.state = StateSuspended
	c.log.Info("session suspended", slog.String("session_id", c.sessionID))
}

func (c *Controller) resume() error {
	if err := c.deps.Sink.Setup(); err != nil {
		c.log.Warn("output setup failed", slog.String("error", err.Error()))
	}
	if err := c.deps.Source.Start(); err != nil {
		c.log.Error("cannot restart audio capture", slog.String("error", err.Error()))
		return err
	}
	c.state = StateListening
	c.lastEvent = c.now()
	c.log.Info("session resumed", slog.String("session_id", c.sessionID))
	return nil
}

// handleText processes one hypothesis. In deferred mode finals accumulate
// and are emitted once at the end. Otherwise text is typed progressively:
// each update retypes only the diff against what is already on screen.
func (c *Controller) handleText(ctx context.Context, text string, final bool) {
	if text == "" {
		return
	}
	if c.cfg.Session.DeferOutput {
		if final {
			c.finals = append(c.finals, text)
		}
		return
	}

	src := text
	if !c.cfg.Session.Continuous {
		// The whole span since the last suspend is reprocessed each time,
		// so number phrases can join across utterance boundaries.
		src = strings.Join(append(append([]string{}, c.finals...), text), " ")
	}
	cur, ok := c.deps.Pipe.Process(src, final)
	if !ok {
		// Suppressed by the pipeline: roll back to the committed text.
		cur = c.committed
	}

	if cur != c.typed {
		del, tail := output.Diff(c.typed, cur)
		if err := c.deps.Sink.Type(del, tail); err != nil {
			c.log.Warn("output failed", slog.String("error", err.Error()))
		}
		c.typed = cur
	}

	if !final {
		return
	}
	c.deps.Pipe.Commit()

	var utterance string
	if c.cfg.Session.Continuous {
		utterance = cur
		if c.cfg.Output.Mode == "stdout" && cur != "" {
			if err := c.deps.Sink.Type(0, "\n"); err != nil {
				c.log.Warn("output failed", slog.String("error", err.Error()))
			}
		}
		c.typed = ""
		c.committed = ""
	} else {
		_, tail := output.Diff(c.committed, cur)
		utterance = strings.TrimSpace(tail)
		c.finals = append(c.finals, text)
		c.committed = cur
	}
	if utterance != "" {
		if err := c.deps.Store.AppendUtterance(ctx, c.sessionID, utterance); err != nil {
			c.log.Warn("history append failed", slog.String("error", err.Error()))
		}
	}
}

// eraseUncommitted removes typed text that was never confirmed by a final
// event, so cancellation and suspension leave only committed text behind.
func (c *Controller) eraseUncommitted() {
	if c.typed == c.committed {
		return
	}
	del, tail := output.Diff(c.typed, c.committed)
	if err := c.deps.Sink.Type(del, tail); err != nil {
		c.log.Warn("output failed", slog.String("error", err.Error()))
	}
	c.typed = c.committed
}

// finish flushes the trailing hypothesis and emits deferred output.
func (c *Controller) finish(ctx context.Context) {
	if ev, ok := c.deps.Rec.Flush(); ok && ev.Text != "" {
		c.handleText(ctx, ev.Text, true)
	}
	if c.cfg.Session.DeferOutput && len(c.finals) > 0 {
		joined := strings.Join(c.finals, " ")
		if cur, ok := c.deps.Pipe.Process(joined, true); ok && cur != "" {
			if err := c.deps.Sink.Setup(); err != nil {
				c.log.Warn("output setup failed", slog.String("error", err.Error()))
			}
			if c.cfg.Output.Mode == "stdout" {
				cur += "\n"
			}
			if err := c.deps.Sink.Type(0, cur); err != nil {
				c.log.Warn("output failed", slog.String("error", err.Error()))
			}
			if err := c.deps.Store.AppendUtterance(ctx, c.sessionID, strings.TrimSpace(cur)); err != nil {
				c.log.Warn("history append failed", slog.String("error", err.Error()))
			}
		}
		c.finals = nil
	}
}

func (c *Controller) teardown(ctx context.Context) {
	c.deps.Source.Stop()
	c.deps.Sink.Teardown()
	if c.deps.Dump != nil {
		if err := c.deps.Dump.Close(); err != nil {
			c.log.Warn("wav dump close failed", slog.String("error", err.Error()))
		}
	}
	if err := c.deps.Rec.Close(); err != nil {
		c.log.Warn("recognizer close failed", slog.String("error", err.Error()))
	}
	if err := c.deps.Store.EndSession(ctx, c.sessionID); err != nil {
		c.log.Warn("history session end failed", slog.String("error", err.Error()))
	}
}
