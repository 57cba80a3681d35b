// prism-dictation is manually-triggered offline speech to text for the
// desktop: begin starts a listening session, end/cancel/suspend/resume
// control it from separate invocations.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prismworks/prism-dictation/internal/config"
	"github.com/prismworks/prism-dictation/internal/control"
	"github.com/prismworks/prism-dictation/internal/session"
)

var version = "0.1.0-dev"

// Exit codes, one per control error so scripts can branch on them.
const (
	exitOK              = 0
	exitFailure         = 1
	exitAlreadyActive   = 2
	exitNoActiveSession = 3
	exitNotListening    = 4
	exitNotSuspended    = 5
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "prism-dictation",
	Short:         "Offline speech to text dictation for the Linux desktop",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (default "+config.DefaultPath()+")")

	rootCmd.AddCommand(beginCmd)
	rootCmd.AddCommand(signalCmd("end", "Stop the session, typing any trailing text", control.CmdEnd))
	rootCmd.AddCommand(signalCmd("cancel", "Stop the session, discarding pending text", control.CmdCancel))
	rootCmd.AddCommand(signalCmd("suspend", "Pause audio capture, keeping the model loaded", control.CmdSuspend))
	rootCmd.AddCommand(signalCmd("resume", "Resume audio capture after a suspend", control.CmdResume))
	rootCmd.AddCommand(statusCmd)
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadOptional(config.DefaultPath())
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	// Stderr: stdout belongs to the output sink in stdout mode.
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

// signalCmd builds a subcommand that delivers one control command to the
// running session and exits.
func signalCmd(name, short, ctl string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				fail(exitFailure, err)
			}
			resp, err := control.Send(cfg.Socket.Path, ctl)
			if err != nil {
				if err == control.ErrNoSession {
					fail(exitNoActiveSession, session.ErrNoActiveSession)
				}
				fail(exitFailure, err)
			}
			if !resp.OK {
				fail(responseExitCode(resp), responseError(resp))
			}
		},
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the state of the running session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fail(exitFailure, err)
		}
		resp, err := control.Send(cfg.Socket.Path, control.CmdStatus)
		if err != nil {
			if err == control.ErrNoSession {
				fmt.Println("idle")
				os.Exit(exitNoActiveSession)
			}
			fail(exitFailure, err)
		}
		fmt.Println(resp.State)
	},
}

func responseExitCode(resp control.Response) int {
	switch resp.Error {
	case control.ErrCodeNotListening:
		return exitNotListening
	case control.ErrCodeNotSuspended:
		return exitNotSuspended
	}
	return exitFailure
}

func responseError(resp control.Response) error {
	switch resp.Error {
	case control.ErrCodeNotListening:
		return session.ErrNotListening
	case control.ErrCodeNotSuspended:
		return session.ErrNotSuspended
	}
	return fmt.Errorf("session error: %s", resp.Error)
}

func fail(code int, err error) {
	fmt.Fprintln(os.Stderr, "prism-dictation:", err)
	os.Exit(code)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail(exitFailure, err)
	}
}
