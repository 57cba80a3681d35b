package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const appDirName = "prism-dictation"

type SocketConfig struct {
	Path string `yaml:"path"`
}

type ModelConfig struct {
	Dir         string `yaml:"dir"`
	GrammarFile string `yaml:"grammar_file"`
}

type AudioConfig struct {
	Method      string `yaml:"method"` // parec, sox, exec
	Command     string `yaml:"command"`
	PulseDevice string `yaml:"pulse_device"`
	SampleRate  int    `yaml:"sample_rate"`
	DumpWAVPath string `yaml:"dump_wav_path"`
}

type RecognizerConfig struct {
	Mode    string `yaml:"mode"` // exec, native, mock
	Command string `yaml:"command"`
}

type OutputConfig struct {
	Mode    string `yaml:"mode"` // simulate, stdout
	Tool    string `yaml:"tool"` // xdotool, ydotool, dotool, dotoolc, wtype, stdout, exec
	Command string `yaml:"command"`
}

type NumbersConfig struct {
	AsDigits     bool `yaml:"as_digits"`
	UseSeparator bool `yaml:"use_separator"`
	MinValue     *int `yaml:"min_value"`
	NoSuffix     bool `yaml:"no_suffix"`
}

type TextConfig struct {
	HookCommand           string  `yaml:"hook_command"`
	FullSentence          bool    `yaml:"full_sentence"`
	PunctuateFromPrevious float64 `yaml:"punctuate_from_previous_timeout"`
}

type SessionConfig struct {
	Timeout        float64 `yaml:"timeout"`
	IdleTime       float64 `yaml:"idle_time"`
	DelayExit      float64 `yaml:"delay_exit"`
	DeferOutput    bool    `yaml:"defer_output"`
	Continuous     bool    `yaml:"continuous"`
	SuspendOnStart bool    `yaml:"suspend_on_start"`
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Socket     SocketConfig     `yaml:"socket"`
	Model      ModelConfig      `yaml:"model"`
	Audio      AudioConfig      `yaml:"audio"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Output     OutputConfig     `yaml:"output"`
	Numbers    NumbersConfig    `yaml:"numbers"`
	Text       TextConfig       `yaml:"text"`
	Session    SessionConfig    `yaml:"session"`
	History    HistoryConfig    `yaml:"history"`
}

// UserDir returns the per-user configuration directory, honoring
// XDG_CONFIG_HOME the way desktop tooling expects.
func UserDir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(home, ".config", appDirName)
}

// DefaultPath is the config file consulted when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(UserDir(), "config.yaml")
}

// DefaultSocketPath places the control socket in the user runtime dir,
// falling back to a per-user path under the system temp dir.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appDirName, "control.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", appDirName, os.Getuid()), "control.sock")
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Socket: SocketConfig{
			Path: DefaultSocketPath(),
		},
		Model: ModelConfig{
			Dir: filepath.Join(UserDir(), "model"),
		},
		Audio: AudioConfig{
			Method:     "parec",
			SampleRate: 44100,
		},
		Recognizer: RecognizerConfig{
			Mode: "native",
		},
		Output: OutputConfig{
			Mode: "simulate",
			Tool: "xdotool",
		},
		Session: SessionConfig{
			IdleTime: 0.1,
		},
		History: HistoryConfig{
			Path:          filepath.Join(UserDir(), "history.db"),
			RetentionMode: "ephemeral",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOptional is Load, except a missing file is not an error. Used for the
// default per-user config path, which commonly does not exist.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = ""
	}
	return Load(path)
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.LogLevel, "PRISM_LOG_LEVEL")
	overrideString(&cfg.Socket.Path, "PRISM_SOCKET_PATH")
	overrideString(&cfg.Model.Dir, "PRISM_MODEL_DIR")
	overrideString(&cfg.Model.GrammarFile, "PRISM_MODEL_GRAMMAR_FILE")
	overrideString(&cfg.Audio.Method, "PRISM_AUDIO_METHOD")
	overrideString(&cfg.Audio.Command, "PRISM_AUDIO_COMMAND")
	overrideString(&cfg.Audio.PulseDevice, "PRISM_AUDIO_PULSE_DEVICE")
	overrideInt(&cfg.Audio.SampleRate, "PRISM_AUDIO_SAMPLE_RATE")
	overrideString(&cfg.Audio.DumpWAVPath, "PRISM_AUDIO_DUMP_WAV_PATH")
	overrideString(&cfg.Recognizer.Mode, "PRISM_RECOGNIZER_MODE")
	overrideString(&cfg.Recognizer.Command, "PRISM_RECOGNIZER_COMMAND")
	overrideString(&cfg.Output.Mode, "PRISM_OUTPUT_MODE")
	overrideString(&cfg.Output.Tool, "PRISM_OUTPUT_TOOL")
	overrideString(&cfg.Output.Command, "PRISM_OUTPUT_COMMAND")
	overrideBool(&cfg.Numbers.AsDigits, "PRISM_NUMBERS_AS_DIGITS")
	overrideBool(&cfg.Numbers.UseSeparator, "PRISM_NUMBERS_USE_SEPARATOR")
	overrideBool(&cfg.Numbers.NoSuffix, "PRISM_NUMBERS_NO_SUFFIX")
	overrideString(&cfg.Text.HookCommand, "PRISM_TEXT_HOOK_COMMAND")
	overrideBool(&cfg.Text.FullSentence, "PRISM_TEXT_FULL_SENTENCE")
	overrideFloat(&cfg.Text.PunctuateFromPrevious, "PRISM_TEXT_PUNCTUATE_FROM_PREVIOUS_TIMEOUT")
	overrideFloat(&cfg.Session.Timeout, "PRISM_SESSION_TIMEOUT")
	overrideFloat(&cfg.Session.IdleTime, "PRISM_SESSION_IDLE_TIME")
	overrideFloat(&cfg.Session.DelayExit, "PRISM_SESSION_DELAY_EXIT")
	overrideBool(&cfg.Session.DeferOutput, "PRISM_SESSION_DEFER_OUTPUT")
	overrideBool(&cfg.Session.Continuous, "PRISM_SESSION_CONTINUOUS")
	overrideBool(&cfg.Session.SuspendOnStart, "PRISM_SESSION_SUSPEND_ON_START")
	overrideString(&cfg.History.Path, "PRISM_HISTORY_PATH")
	overrideString(&cfg.History.RetentionMode, "PRISM_HISTORY_RETENTION_MODE")
	overrideInt(&cfg.History.RetentionDays, "PRISM_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxSessions, "PRISM_HISTORY_MAX_SESSIONS")
	overrideBool(&cfg.History.VacuumOnStart, "PRISM_HISTORY_VACUUM_ON_START")

	if value, ok := os.LookupEnv("PRISM_NUMBERS_MIN_VALUE"); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			cfg.Numbers.MinValue = &parsed
		}
	}
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("log_level must be one of debug|info|warn|error")
	}
	if cfg.Socket.Path == "" {
		return errors.New("socket.path must not be empty")
	}
	switch cfg.Audio.Method {
	case "parec", "sox", "exec":
	default:
		return errors.New("audio.method must be one of parec|sox|exec")
	}
	if cfg.Audio.Method == "exec" && cfg.Audio.Command == "" {
		return errors.New("audio.command must be set when method=exec")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	switch cfg.Recognizer.Mode {
	case "exec", "native", "mock":
	default:
		return errors.New("recognizer.mode must be one of exec|native|mock")
	}
	if cfg.Recognizer.Mode == "exec" && cfg.Recognizer.Command == "" {
		return errors.New("recognizer.command must be set when mode=exec")
	}
	switch cfg.Output.Mode {
	case "simulate", "stdout":
	default:
		return errors.New("output.mode must be one of simulate|stdout")
	}
	switch cfg.Output.Tool {
	case "xdotool", "ydotool", "dotool", "dotoolc", "wtype", "stdout", "exec":
	default:
		return errors.New("output.tool must be one of xdotool|ydotool|dotool|dotoolc|wtype|stdout|exec")
	}
	if cfg.Output.Tool == "exec" && cfg.Output.Command == "" {
		return errors.New("output.command must be set when tool=exec")
	}
	if cfg.Session.Timeout < 0 {
		return errors.New("session.timeout must be >= 0")
	}
	if cfg.Session.IdleTime < 0 {
		return errors.New("session.idle_time must be >= 0")
	}
	// High idle values make control commands unresponsive.
	if cfg.Session.IdleTime > 0.5 {
		cfg.Session.IdleTime = 0.5
	}
	if cfg.Session.DelayExit < 0 {
		return errors.New("session.delay_exit must be >= 0")
	}
	switch cfg.History.RetentionMode {
	case "ephemeral", "session", "persistent":
	default:
		return errors.New("history.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.History.RetentionMode != "ephemeral" && cfg.History.Path == "" {
		return errors.New("history.path must not be empty")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}
