// Command fireside is the main entry point for the Fireside voice assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/fireside/internal/app"
	"github.com/MrWong99/fireside/internal/config"
	"github.com/MrWong99/fireside/internal/observe"
	"github.com/MrWong99/fireside/internal/pipeline"
	"github.com/MrWong99/fireside/internal/resilience"
	"github.com/MrWong99/fireside/pkg/audio/portaudio"
	"github.com/MrWong99/fireside/pkg/provider/llm"
	"github.com/MrWong99/fireside/pkg/provider/llm/anyllm"
	"github.com/MrWong99/fireside/pkg/provider/stt"
	"github.com/MrWong99/fireside/pkg/provider/stt/whisper"
	"github.com/MrWong99/fireside/pkg/provider/tts"
	"github.com/MrWong99/fireside/pkg/provider/tts/piper"
	"github.com/MrWong99/fireside/pkg/provider/vad"
	"github.com/MrWong99/fireside/pkg/provider/vad/rms"
	"github.com/MrWong99/fireside/pkg/provider/wake"
	wakeremote "github.com/MrWong99/fireside/pkg/provider/wake/remote"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "fireside: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "fireside: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(config.SlogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("fireside starting",
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "fireside",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, closeProviders, err := buildProviders(ctx, cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}
	defer closeProviders()

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(cfg, providers,
		app.WithConfigPath(*configPath),
		app.WithLogLevel(level),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("ready — say the wake word, or press Ctrl+C to shut down")

	runErr := application.Run(ctx)

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("shutdown error", "err", err)
	}

	switch {
	case runErr == nil,
		errors.Is(runErr, context.Canceled),
		errors.Is(runErr, pipeline.ErrExitRequested):
		slog.Info("goodbye")
		return 0
	default:
		slog.Error("run error", "err", runErr)
		return 1
	}
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the provider
// from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Wake ──────────────────────────────────────────────────────────────────

	reg.RegisterWake("remote", func(ctx context.Context, entry config.ProviderEntry) (wake.Detector, error) {
		var opts []wakeremote.Option
		if entry.Model != "" {
			opts = append(opts, wakeremote.WithModel(entry.Model))
		}
		if n := optInt(entry.Options, "chunk_size"); n > 0 {
			opts = append(opts, wakeremote.WithChunkSize(n))
		}
		return wakeremote.New(ctx, entry.BaseURL, opts...)
	})

	// ── VAD ───────────────────────────────────────────────────────────────────

	reg.RegisterVAD("rms", func(_ context.Context, entry config.ProviderEntry) (vad.Engine, error) {
		var opts []rms.Option
		if knee := optFloat(entry.Options, "knee"); knee > 0 {
			opts = append(opts, rms.WithKnee(knee))
		}
		return rms.New(opts...), nil
	})

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(_ context.Context, entry config.ProviderEntry) (stt.Transcriber, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(modelPath, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("piper", func(_ context.Context, entry config.ProviderEntry) (tts.Synthesizer, error) {
		var opts []piper.Option
		if entry.Model != "" {
			opts = append(opts, piper.WithVoice(entry.Model))
		}
		return piper.New(entry.BaseURL, opts...)
	})

	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai, anthropic, gemini, deepseek, mistral, groq, llamacpp, llamafile
	// all share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(_ context.Context, entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(_ context.Context, entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})
}

// buildProviders instantiates the audio devices and all providers named in
// cfg. The returned cleanup closes everything that was opened, in reverse
// order, and is safe to call after a partial failure.
func buildProviders(ctx context.Context, cfg *config.Config, reg *config.Registry) (*app.Providers, func(), error) {
	ps := &app.Providers{}
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Warn("provider close error", "err", err)
			}
		}
	}

	fail := func(err error) (*app.Providers, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	// ── Audio devices ─────────────────────────────────────────────────────────

	frameSize := 0
	if cfg.Audio.FrameSizeMs > 0 && cfg.Audio.SampleRate > 0 {
		frameSize = cfg.Audio.SampleRate * cfg.Audio.FrameSizeMs / 1000
	}
	mic, err := portaudio.NewMicSource(portaudio.SourceConfig{
		SampleRate:       cfg.Audio.SampleRate,
		FrameSize:        frameSize,
		PreferredDevices: cfg.Audio.InputDevices,
	})
	if err != nil {
		return fail(fmt.Errorf("open microphone: %w", err))
	}
	ps.Mic = mic
	closers = append(closers, mic.Close)

	speaker, err := portaudio.NewSpeaker(portaudio.SinkConfig{
		PreferredDevices: cfg.Audio.OutputDevices,
	})
	if err != nil {
		return fail(fmt.Errorf("open speaker: %w", err))
	}
	ps.Speaker = speaker
	closers = append(closers, speaker.Close)

	// ── Pipeline providers ────────────────────────────────────────────────────

	if name := cfg.Providers.Wake.Name; name != "" {
		p, err := reg.CreateWake(ctx, cfg.Providers.Wake)
		if err != nil {
			return fail(fmt.Errorf("create wake provider %q: %w", name, err))
		}
		ps.Wake = p
		closers = append(closers, p.Close)
		slog.Info("provider created", "kind", "wake", "name", name)
	}

	if name := cfg.Providers.VAD.Name; name != "" {
		p, err := reg.CreateVAD(ctx, cfg.Providers.VAD)
		if err != nil {
			return fail(fmt.Errorf("create vad provider %q: %w", name, err))
		}
		ps.VAD = p
		slog.Info("provider created", "kind", "vad", "name", name)
	}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(ctx, cfg.Providers.STT)
		if err != nil {
			return fail(fmt.Errorf("create stt provider %q: %w", name, err))
		}
		ps.STT = p
		if closer, ok := p.(interface{ Close() error }); ok {
			closers = append(closers, closer.Close)
		}
		slog.Info("provider created", "kind", "stt", "name", name)

		if fbs := cfg.Providers.STT.Fallbacks; len(fbs) > 0 {
			wrap := resilience.NewSTTFallback(p, name, resilience.GroupConfig{})
			for _, fe := range fbs {
				fb, err := reg.CreateSTT(ctx, fe)
				if err != nil {
					return fail(fmt.Errorf("create stt fallback %q: %w", fe.Name, err))
				}
				if closer, ok := fb.(interface{ Close() error }); ok {
					closers = append(closers, closer.Close)
				}
				wrap.AddFallback(fe.Name, fb)
				slog.Info("provider fallback registered", "kind", "stt", "name", fe.Name)
			}
			ps.STT = wrap
		}
	}

	if name := cfg.Providers.TTS.Name; name != "" {
		p, err := reg.CreateTTS(ctx, cfg.Providers.TTS)
		if err != nil {
			return fail(fmt.Errorf("create tts provider %q: %w", name, err))
		}
		ps.TTS = p
		slog.Info("provider created", "kind", "tts", "name", name)

		if fbs := cfg.Providers.TTS.Fallbacks; len(fbs) > 0 {
			wrap := resilience.NewTTSFallback(p, name, resilience.GroupConfig{})
			for _, fe := range fbs {
				fb, err := reg.CreateTTS(ctx, fe)
				if err != nil {
					return fail(fmt.Errorf("create tts fallback %q: %w", fe.Name, err))
				}
				wrap.AddFallback(fe.Name, fb)
				slog.Info("provider fallback registered", "kind", "tts", "name", fe.Name)
			}
			ps.TTS = wrap
		}
	}

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(ctx, cfg.Providers.LLM)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("unknown llm provider — open questions disabled", "name", name)
		} else if err != nil {
			return fail(fmt.Errorf("create llm provider %q: %w", name, err))
		} else {
			ps.LLM = p
			slog.Info("provider created", "kind", "llm", "name", name)

			if fbs := cfg.Providers.LLM.Fallbacks; len(fbs) > 0 {
				wrap := resilience.NewLLMFallback(p, name, resilience.GroupConfig{})
				for _, fe := range fbs {
					fb, err := reg.CreateLLM(ctx, fe)
					if err != nil {
						return fail(fmt.Errorf("create llm fallback %q: %w", fe.Name, err))
					}
					wrap.AddFallback(fe.Name, fb)
					slog.Info("provider fallback registered", "kind", "llm", "name", fe.Name)
				}
				ps.LLM = wrap
			}
		}
	}

	return ps, cleanup, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Fireside — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Wake", cfg.Providers.Wake.Name, cfg.Providers.Wake.Model)
	printProvider("VAD", cfg.Providers.VAD.Name, "")
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	if cfg.Sounds.Dir != "" {
		fmt.Printf("║  Sounds          : %-19s ║\n", truncate(cfg.Sounds.Dir, 19))
	} else {
		fmt.Printf("║  Sounds          : %-19s ║\n", "(disabled)")
	}
	if cfg.Weather.Location != "" {
		fmt.Printf("║  Weather         : %-19s ║\n", truncate(cfg.Weather.Location, 19))
	}
	if cfg.Server.MetricsAddr != "" {
		fmt.Printf("║  Metrics addr    : %-19s ║\n", cfg.Server.MetricsAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, truncate(value, 19))
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "…"
	}
	return s
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optInt extracts an int value, tolerating the float64 YAML sometimes yields.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	switch v := opts[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// optFloat extracts a float value, tolerating ints.
func optFloat(opts map[string]any, key string) float64 {
	if opts == nil {
		return 0
	}
	switch v := opts[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
