package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"wake": {"remote"},
	"vad":  {"rms"},
	"stt":  {"whisper"},
	"tts":  {"piper"},
	"llm":  {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Audio
	if cfg.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must not be negative", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameSizeMs < 0 {
		errs = append(errs, fmt.Errorf("audio.frame_size_ms %d must not be negative", cfg.Audio.FrameSizeMs))
	}

	// Pipeline thresholds
	if t := cfg.Pipeline.WakeThreshold; t != 0 && (t <= 0 || t > 1) {
		errs = append(errs, fmt.Errorf("pipeline.wake_threshold %.2f is out of range (0, 1]", t))
	}
	if t := cfg.Pipeline.SpeechThreshold; t != 0 && (t <= 0 || t >= 1) {
		errs = append(errs, fmt.Errorf("pipeline.speech_threshold %.2f is out of range (0, 1)", t))
	}
	for _, v := range []struct {
		name string
		ms   int
	}{
		{"pipeline.wake_debounce_ms", cfg.Pipeline.WakeDebounceMs},
		{"pipeline.silence_timeout_ms", cfg.Pipeline.SilenceTimeoutMs},
		{"pipeline.max_record_ms", cfg.Pipeline.MaxRecordMs},
		{"pipeline.post_wake_grace_ms", cfg.Pipeline.PostWakeGraceMs},
	} {
		if v.ms < 0 {
			errs = append(errs, fmt.Errorf("%s %d must not be negative", v.name, v.ms))
		}
	}
	if cfg.Pipeline.MaxRecordMs > 0 && cfg.Pipeline.SilenceTimeoutMs > cfg.Pipeline.MaxRecordMs {
		errs = append(errs, fmt.Errorf("pipeline.silence_timeout_ms %d exceeds pipeline.max_record_ms %d", cfg.Pipeline.SilenceTimeoutMs, cfg.Pipeline.MaxRecordMs))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("wake", cfg.Providers.Wake.Name)
	validateProviderName("vad", cfg.Providers.VAD.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)
	for kind, entry := range map[string]ProviderEntry{
		"stt": cfg.Providers.STT,
		"tts": cfg.Providers.TTS,
		"llm": cfg.Providers.LLM,
	} {
		for _, fb := range entry.Fallbacks {
			validateProviderName(kind, fb.Name)
		}
	}

	// Provider availability warnings
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; spoken commands cannot be transcribed")
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no TTS provider configured; responses will be logged but not spoken")
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; open-ended questions will be unavailable")
	}

	// Sounds
	if cfg.Sounds.Dir != "" {
		if info, err := os.Stat(cfg.Sounds.Dir); err != nil || !info.IsDir() {
			slog.Warn("sounds.dir is not a readable directory; inline sound markers will be stripped",
				"dir", cfg.Sounds.Dir)
		}
	}

	// Weather
	if cfg.Weather.Latitude < -90 || cfg.Weather.Latitude > 90 {
		errs = append(errs, fmt.Errorf("weather.latitude %.4f is out of range [-90, 90]", cfg.Weather.Latitude))
	}
	if cfg.Weather.Longitude < -180 || cfg.Weather.Longitude > 180 {
		errs = append(errs, fmt.Errorf("weather.longitude %.4f is out of range [-180, 180]", cfg.Weather.Longitude))
	}
	if cfg.Weather.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Weather.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("weather.timezone %q is not a valid IANA zone: %w", cfg.Weather.Timezone, err))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
