package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prismworks/prism-dictation/internal/audio"
	"github.com/prismworks/prism-dictation/internal/config"
	"github.com/prismworks/prism-dictation/internal/control"
	"github.com/prismworks/prism-dictation/internal/history"
	"github.com/prismworks/prism-dictation/internal/recognizer"
	"github.com/prismworks/prism-dictation/internal/textproc"
)

type fakeSource struct {
	mu      sync.Mutex
	started bool
	starts  int
	stops   int
	chunks  [][]byte
}

func (f *fakeSource) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	f.starts++
	return nil
}

func (f *fakeSource) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		f.stops++
	}
	f.started = false
}

func (f *fakeSource) Recording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeSource) Read(wait time.Duration) (audio.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return audio.Chunk{}, audio.ErrClosed
	}
	if len(f.chunks) == 0 {
		return audio.Chunk{}, nil
	}
	pcm := f.chunks[0]
	f.chunks = f.chunks[1:]
	return audio.Chunk{PCM: pcm}, nil
}

// kill simulates the capture process dying mid-session.
func (f *fakeSource) kill() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = false
}

func (f *fakeSource) remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks)
}

func (f *fakeSource) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func (f *fakeSource) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

type typeOp struct {
	del  int
	text string
}

type fakeSink struct {
	mu        sync.Mutex
	setups    int
	teardowns int
	ops       []typeOp
}

func (f *fakeSink) Setup() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setups++
	return nil
}

func (f *fakeSink) Teardown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teardowns++
}

func (f *fakeSink) Type(deletePrevChars int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, typeOp{del: deletePrevChars, text: text})
	return nil
}

func (f *fakeSink) opCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ops)
}

func (f *fakeSink) teardownCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teardowns
}

// rendered replays the type operations the way a text field would see them.
func (f *fakeSink) rendered() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var screen []rune
	for _, op := range f.ops {
		del := op.del
		if del > len(screen) {
			del = len(screen)
		}
		screen = screen[:len(screen)-del]
		screen = append(screen, []rune(op.text)...)
	}
	return string(screen)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	source   *fakeSource
	rec      *recognizer.Mock
	sink     *fakeSink
	requests chan control.Request
	done     chan error
}

// start launches a controller fed by a scripted recognizer; one audio
// chunk is queued per scripted event so each chunk releases one event.
func start(t *testing.T, cfg config.Config, script ...recognizer.Event) *harness {
	t.Helper()
	if cfg.Session.IdleTime == 0 {
		cfg.Session.IdleTime = 0.001
	}

	h := &harness{
		source:   &fakeSource{},
		rec:      recognizer.NewMock(),
		sink:     &fakeSink{},
		requests: make(chan control.Request),
		done:     make(chan error, 1),
	}
	h.rec.Script(script...)
	for range script {
		h.source.chunks = append(h.source.chunks, []byte{0, 0})
	}

	pipe, err := textproc.New(cfg.Text, cfg.Numbers, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	store, err := history.Open(context.Background(), config.HistoryConfig{RetentionMode: "ephemeral"}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctl := New(cfg, Deps{
		Source: h.source,
		Rec:    h.rec,
		Pipe:   pipe,
		Sink:   h.sink,
		Store:  store,
	}, discardLogger())

	go func() { h.done <- ctl.Run(context.Background(), h.requests) }()
	return h
}

func (h *harness) send(t *testing.T, cmd string) control.Response {
	t.Helper()
	req := control.Request{Cmd: cmd, Reply: make(chan control.Response, 1)}
	select {
	case h.requests <- req:
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not accept command")
	}
	select {
	case resp := <-req.Reply:
		return resp
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not reply")
		return control.Response{}
	}
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	select {
	case err := <-h.done:
		if err != nil {
			t.Fatalf("controller exited with error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not exit")
	}
}

func waitForOutput(t *testing.T, h *harness, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.sink.rendered() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("output never reached %q, got %q", want, h.sink.rendered())
}

func TestEndTypesRecognizedText(t *testing.T) {
	h := start(t, config.Default(),
		recognizer.Event{Kind: recognizer.Partial, Text: "hello"},
		recognizer.Event{Kind: recognizer.Final, Text: "hello world"},
	)

	waitForOutput(t, h, "hello world")
	resp := h.send(t, control.CmdEnd)
	if !resp.OK {
		t.Fatalf("end rejected: %+v", resp)
	}
	h.wait(t)

	if h.sink.rendered() != "hello world" {
		t.Fatalf("rendered %q", h.sink.rendered())
	}
	if !h.rec.Closed() {
		t.Fatal("recognizer not closed on end")
	}
	if h.source.stopCount() == 0 {
		t.Fatal("audio source not stopped on end")
	}
}

func TestEndFlushesTrailingPartial(t *testing.T) {
	h := start(t, config.Default(),
		recognizer.Event{Kind: recognizer.Partial, Text: "almost done"},
	)

	waitForOutput(t, h, "almost done")
	h.send(t, control.CmdEnd)
	h.wait(t)

	// Flush promoted the partial to a final; nothing should be retyped.
	if got := h.sink.rendered(); got != "almost done" {
		t.Fatalf("rendered %q", got)
	}
}

func TestCancelAfterPartialEmitsNothing(t *testing.T) {
	h := start(t, config.Default(),
		recognizer.Event{Kind: recognizer.Partial, Text: "never typed"},
	)

	waitForOutput(t, h, "never typed")
	resp := h.send(t, control.CmdCancel)
	if !resp.OK {
		t.Fatalf("cancel rejected: %+v", resp)
	}
	h.wait(t)

	if got := h.sink.rendered(); got != "" {
		t.Fatalf("cancel left %q on screen", got)
	}
	if !h.rec.Closed() {
		t.Fatal("recognizer not closed on cancel")
	}
}

func TestSuspendResumeKeepsRecognizer(t *testing.T) {
	h := start(t, config.Default())

	resp := h.send(t, control.CmdSuspend)
	if !resp.OK || resp.State != "suspended" {
		t.Fatalf("suspend: %+v", resp)
	}
	if h.source.stopCount() != 1 {
		t.Fatalf("recorder stops = %d, want 1", h.source.stopCount())
	}
	if h.sink.teardownCount() != 1 {
		t.Fatalf("sink teardowns = %d, want 1", h.sink.teardownCount())
	}
	if h.rec.Closed() {
		t.Fatal("suspend must not close the recognizer")
	}

	// Suspending again is rejected without touching resources.
	resp = h.send(t, control.CmdSuspend)
	if resp.OK || resp.Error != control.ErrCodeNotListening {
		t.Fatalf("second suspend: %+v", resp)
	}
	if h.source.stopCount() != 1 {
		t.Fatalf("rejected suspend changed resources: stops = %d", h.source.stopCount())
	}

	resp = h.send(t, control.CmdResume)
	if !resp.OK || resp.State != "listening" {
		t.Fatalf("resume: %+v", resp)
	}
	if h.source.startCount() != 2 {
		t.Fatalf("recorder starts = %d, want 2", h.source.startCount())
	}

	resp = h.send(t, control.CmdResume)
	if resp.OK || resp.Error != control.ErrCodeNotSuspended {
		t.Fatalf("second resume: %+v", resp)
	}

	h.send(t, control.CmdEnd)
	h.wait(t)
}

func TestStatusReportsState(t *testing.T) {
	h := start(t, config.Default())

	resp := h.send(t, control.CmdStatus)
	if !resp.OK || resp.State != "listening" {
		t.Fatalf("status: %+v", resp)
	}
	h.send(t, control.CmdSuspend)
	resp = h.send(t, control.CmdStatus)
	if !resp.OK || resp.State != "suspended" {
		t.Fatalf("status while suspended: %+v", resp)
	}

	h.send(t, control.CmdEnd)
	h.wait(t)
}

func TestSilenceTimeoutEndsSession(t *testing.T) {
	cfg := config.Default()
	cfg.Session.Timeout = 0.05
	h := start(t, cfg)

	h.wait(t)
	if !h.rec.Closed() {
		t.Fatal("timeout did not tear down the recognizer")
	}
}

func TestAudioDeathStopsGracefully(t *testing.T) {
	h := start(t, config.Default())

	// Wait until the controller has started the capture before killing it;
	// killing earlier races with startup and the source gets re-armed.
	deadline := time.Now().Add(2 * time.Second)
	for h.source.startCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.source.kill()
	h.wait(t)
	if !h.rec.Closed() {
		t.Fatal("audio death did not tear down the recognizer")
	}
}

func TestDeferOutputTypesOnce(t *testing.T) {
	cfg := config.Default()
	cfg.Session.DeferOutput = true
	h := start(t, cfg,
		recognizer.Event{Kind: recognizer.Final, Text: "first part"},
		recognizer.Event{Kind: recognizer.Final, Text: "second part"},
	)

	deadline := time.Now().Add(2 * time.Second)
	for h.source.remaining() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if n := h.sink.opCount(); n != 0 {
		t.Fatalf("deferred mode typed %d times before end", n)
	}

	h.send(t, control.CmdEnd)
	h.wait(t)

	if got := h.sink.rendered(); got != "first part second part" {
		t.Fatalf("rendered %q", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	h := start(t, config.Default())

	resp := h.send(t, "levitate")
	if resp.OK || resp.Error != control.ErrCodeUnknown {
		t.Fatalf("got %+v", resp)
	}

	h.send(t, control.CmdCancel)
	h.wait(t)
}
