// Package control carries commands from short-lived CLI invocations to
// the running session process over a Unix socket using NDJSON: one
// command per line in, one response line back.
package control

// Command names accepted over the socket.
const (
	CmdEnd     = "end"
	CmdCancel  = "cancel"
	CmdSuspend = "suspend"
	CmdResume  = "resume"
	CmdStatus  = "status"
)

// Symbolic error codes carried in Response.Error. The CLI maps these to
// exit codes.
const (
	ErrCodeNotListening = "not-listening"
	ErrCodeNotSuspended = "not-suspended"
	ErrCodeUnknown      = "unknown-command"
)

// Command is one control request sent to the session process.
type Command struct {
	Cmd string `json:"cmd"`
}

// Response is returned for each command.
type Response struct {
	OK    bool   `json:"ok"`
	State string `json:"state,omitempty"` // listening, suspended, stopping
	Error string `json:"error,omitempty"`
}

// Request is a decoded command paired with its reply channel, handed to
// the session loop by the server. Exactly one Response must be sent.
type Request struct {
	Cmd   string
	Reply chan Response
}
