package recognizer

// Mock is a scripted recognizer for tests and for exercising the session
// loop without a speech engine. Events queued with Script are released one
// per Accept call, in order.
type Mock struct {
	script   []Event
	pending  []Event
	last     string
	accepted int
	closed   bool
}

func NewMock() *Mock {
	return &Mock{}
}

// Script queues events to be released as audio arrives.
func (m *Mock) Script(events ...Event) {
	m.script = append(m.script, events...)
}

// Accepted reports how many PCM chunks have been fed in.
func (m *Mock) Accepted() int { return m.accepted }

// Closed reports whether Close has been called.
func (m *Mock) Closed() bool { return m.closed }

func (m *Mock) Accept(pcm []byte) error {
	m.accepted++
	if len(m.script) > 0 {
		m.pending = append(m.pending, m.script[0])
		m.script = m.script[1:]
	}
	return nil
}

func (m *Mock) Poll() (Event, bool) {
	if len(m.pending) == 0 {
		return Event{}, false
	}
	ev := m.pending[0]
	m.pending = m.pending[1:]
	// Track the in-flight hypothesis the way a real engine does, so Flush
	// can finalize a partial that was already delivered.
	if ev.Kind == Partial {
		m.last = ev.Text
	} else {
		m.last = ""
	}
	return ev, true
}

func (m *Mock) Flush() (Event, bool) {
	text := m.last
	for _, ev := range m.pending {
		text = ev.Text
	}
	m.pending = nil
	m.last = ""
	if text == "" {
		return Event{}, false
	}
	return Event{Kind: Final, Text: text}, true
}

func (m *Mock) Reset() {
	m.pending = nil
	m.last = ""
}

func (m *Mock) Close() error {
	m.closed = true
	return nil
}
