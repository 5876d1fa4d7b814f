// Package config provides the configuration schema, loader, and provider
// registry for the Fireside voice assistant.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity for the assistant.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l onto the slog level scale. Unknown values map to info.
func SlogLevel(l LogLevel) slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure for Fireside.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Audio      AudioConfig      `yaml:"audio"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Sounds     SoundsConfig     `yaml:"sounds"`
	Weather    WeatherConfig    `yaml:"weather"`
	Transcript TranscriptConfig `yaml:"transcript"`
}

// TranscriptConfig tunes the post-transcription correction pass.
type TranscriptConfig struct {
	// Vocabulary lists extra terms appended to the built-in command
	// vocabulary, e.g. household names the recogniser keeps mishearing.
	Vocabulary []string `yaml:"vocabulary"`
}

// ServerConfig holds logging and diagnostics settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address for the Prometheus /metrics and /healthz
	// endpoints (e.g., ":9090"). Empty disables the diagnostics server.
	MetricsAddr string `yaml:"metrics_addr"`
}

// AudioConfig holds sound-device settings.
type AudioConfig struct {
	// SampleRate is the capture sample rate in Hz. Defaults to 16000.
	SampleRate int `yaml:"sample_rate"`

	// FrameSizeMs is the capture frame length in milliseconds. Defaults to 30.
	FrameSizeMs int `yaml:"frame_size_ms"`

	// InputDevices lists preferred input device name substrings, in priority
	// order. Empty falls back to the system default input.
	InputDevices []string `yaml:"input_devices"`

	// OutputDevices lists preferred output device name substrings, in
	// priority order. Empty falls back to the system default output.
	OutputDevices []string `yaml:"output_devices"`
}

// PipelineConfig holds wake-word and recording thresholds. Millisecond fields
// left at zero take their built-in defaults.
type PipelineConfig struct {
	// WakeThreshold is the wake-word score above which the assistant
	// activates, in (0, 1]. Defaults to 0.5.
	WakeThreshold float64 `yaml:"wake_threshold"`

	// WakeDebounceMs suppresses repeat activations for this long after a
	// detection. Defaults to 2000.
	WakeDebounceMs int `yaml:"wake_debounce_ms"`

	// SpeechThreshold is the voice-activity probability above which a frame
	// counts as speech, in (0, 1). Defaults to 0.5.
	SpeechThreshold float64 `yaml:"speech_threshold"`

	// SilenceTimeoutMs ends a recording after this much trailing silence.
	// Defaults to 800.
	SilenceTimeoutMs int `yaml:"silence_timeout_ms"`

	// MaxRecordMs caps the total recording length. Defaults to 15000.
	MaxRecordMs int `yaml:"max_record_ms"`

	// PostWakeGraceMs is how long the recorder waits for speech to begin
	// after the wake word before giving up. Defaults to 5000.
	PostWakeGraceMs int `yaml:"post_wake_grace_ms"`
}

// WakeDebounce returns the debounce window as a duration.
func (p PipelineConfig) WakeDebounce() time.Duration {
	return time.Duration(p.WakeDebounceMs) * time.Millisecond
}

// SilenceTimeout returns the trailing-silence window as a duration.
func (p PipelineConfig) SilenceTimeout() time.Duration {
	return time.Duration(p.SilenceTimeoutMs) * time.Millisecond
}

// MaxRecord returns the recording cap as a duration.
func (p PipelineConfig) MaxRecord() time.Duration {
	return time.Duration(p.MaxRecordMs) * time.Millisecond
}

// PostWakeGrace returns the post-wake speech wait as a duration.
func (p PipelineConfig) PostWakeGrace() time.Duration {
	return time.Duration(p.PostWakeGraceMs) * time.Millisecond
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	Wake ProviderEntry `yaml:"wake"`
	VAD  ProviderEntry `yaml:"vad"`
	STT  ProviderEntry `yaml:"stt"`
	TTS  ProviderEntry `yaml:"tts"`
	LLM  ProviderEntry `yaml:"llm"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "whisper", "piper", "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL is the provider's endpoint: a server URL for HTTP providers
	// (piper), a WebSocket URL for the remote wake scorer, or empty for
	// in-process providers.
	BaseURL string `yaml:"base_url"`

	// Model selects a model within the provider: a file path for whisper,
	// a wake-word model name for the remote scorer, a model tag for LLMs.
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or
	// nested maps.
	Options map[string]any `yaml:"options"`

	// Fallbacks lists alternative providers of the same kind, tried in order
	// when this one fails or its circuit breaker is open. Supported for the
	// stt, tts and llm kinds; nested fallbacks are ignored.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// SoundsConfig locates the sound-effect library used by inline audio markers
// in spoken responses.
type SoundsConfig struct {
	// Dir is the directory scanned for WAV sound-effect files. Empty
	// disables inline sound markers; they are stripped from responses.
	Dir string `yaml:"dir"`
}

// WeatherConfig holds the fixed location used by the weather command.
type WeatherConfig struct {
	// Latitude and Longitude locate the forecast point.
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`

	// Location is the spoken name of the place (e.g., "Boston").
	Location string `yaml:"location"`

	// Timezone is the IANA zone name used for forecast times
	// (e.g., "America/New_York"). Empty uses the system zone.
	Timezone string `yaml:"timezone"`
}
