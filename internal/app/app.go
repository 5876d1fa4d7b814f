// Package app wires all fireside subsystems into a running assistant.
//
// The App struct owns the full lifecycle: New creates and connects the
// speech channel, timer and reminder engines, command dispatcher, and
// interaction pipeline; Run executes them until the context is cancelled or
// a voice command requests shutdown; Shutdown tears everything down.
//
// Providers come in from main.go via the config registry, so tests can
// inject mocks through the same struct.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/command/builtin"
	"github.com/MrWong99/fireside/internal/config"
	"github.com/MrWong99/fireside/internal/health"
	"github.com/MrWong99/fireside/internal/observe"
	"github.com/MrWong99/fireside/internal/pipeline"
	"github.com/MrWong99/fireside/internal/reminder"
	"github.com/MrWong99/fireside/internal/speech"
	"github.com/MrWong99/fireside/internal/timer"
	"github.com/MrWong99/fireside/internal/transcript"
	"github.com/MrWong99/fireside/pkg/audio"
	"github.com/MrWong99/fireside/pkg/provider/llm"
	"github.com/MrWong99/fireside/pkg/provider/stt"
	"github.com/MrWong99/fireside/pkg/provider/tts"
	"github.com/MrWong99/fireside/pkg/provider/vad"
	"github.com/MrWong99/fireside/pkg/provider/wake"
)

// wakeAckSound is the chime marker played after each wake detection when a
// sound library is configured.
const wakeAckSound = "[[wake.wav]]"

// Providers holds one value per pipeline slot. LLM may be nil, which
// disables the open-question command; everything else is required.
// Populated by main.go via the config registry.
type Providers struct {
	Wake    wake.Detector
	VAD     vad.Engine
	STT     stt.Transcriber
	TTS     tts.Synthesizer
	LLM     llm.Provider
	Mic     audio.Source
	Speaker audio.Sink
}

// Option is a functional option for New.
type Option func(*App)

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithConfigPath enables hot reloading of the config file at path. Log
// level, pipeline tuning, and the weather location are applied live; other
// changes need a restart.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// WithLogLevel hands the app the level var backing the process logger so
// config reloads can adjust verbosity.
func WithLogLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = lv }
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers
	metrics   *observe.Metrics

	speech     *speech.Channel
	timers     *timer.Engine
	reminders  *reminder.Engine
	dispatcher *command.Dispatcher
	weather    *builtin.WeatherCommand
	orch       *pipeline.Orchestrator
	httpSrv    *http.Server
	watcher    *config.Watcher

	configPath string
	logLevel   *slog.LevelVar

	stopOnce sync.Once
}

// New wires the assistant together. It does not touch the network or audio
// devices beyond what the providers already opened.
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if err := requireProviders(providers); err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// Speech output: one serialized channel owning the speaker.
	speechOpts := []speech.Option{speech.WithMetrics(a.metrics)}
	if cfg.Sounds.Dir != "" {
		speechOpts = append(speechOpts, speech.WithLibrary(speech.NewLibrary(cfg.Sounds.Dir)))
	}
	a.speech = speech.NewChannel(providers.TTS, providers.Speaker, speechOpts...)

	// Background engines announce through the speech channel.
	a.timers = timer.NewEngine(a.speech, timer.WithMetrics(a.metrics))
	a.reminders = reminder.NewEngine(a.speech, reminder.WithMetrics(a.metrics))

	// Commands. The repeat command needs the dispatcher itself, so commands
	// are registered after construction; the order here is the score
	// tie-break order.
	sleep := builtin.NewSleepState()
	a.dispatcher = command.NewDispatcher(nil,
		command.WithGate(sleep),
		command.WithMetrics(a.metrics),
	)
	a.weather = builtin.NewWeatherCommand(cfg.Weather)
	cmds := []command.Command{
		builtin.NewTimerCommand(a.timers),
		builtin.NewReminderCommand(a.reminders),
		builtin.NewSleepCommand(sleep),
		builtin.NewRepeatCommand(a.dispatcher),
		builtin.NewClockCommand(),
		a.weather,
		builtin.NewGreetingCommand(),
		builtin.NewQuitCommand(),
	}
	if providers.LLM != nil {
		cmds = append(cmds, builtin.NewAskCommand(providers.LLM))
	} else {
		slog.Info("no llm provider configured, open questions fall back to echo")
	}
	a.dispatcher.Register(cmds...)

	sampleRate := cfg.Audio.SampleRate
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	corrector := transcript.NewCorrector(append(
		transcript.DefaultVocabulary(), cfg.Transcript.Vocabulary...,
	))
	orchOpts := []pipeline.Option{
		pipeline.WithMetrics(a.metrics),
		pipeline.WithWakeModel(cfg.Providers.Wake.Model),
		pipeline.WithCorrector(corrector),
	}
	if cfg.Sounds.Dir != "" {
		orchOpts = append(orchOpts, pipeline.WithAckSound(wakeAckSound))
	}
	a.orch = pipeline.NewOrchestrator(
		providers.Mic, providers.Wake, providers.VAD, providers.STT,
		a.speech, a.dispatcher, cfg.Pipeline, sampleRate, orchOpts...,
	)

	if cfg.Server.MetricsAddr != "" {
		a.httpSrv = a.buildHTTPServer(cfg.Server.MetricsAddr)
	}

	return a, nil
}

// requireProviders rejects a wiring that cannot form a working pipeline.
func requireProviders(p *Providers) error {
	if p == nil {
		return errors.New("app: providers must not be nil")
	}
	var missing []string
	for _, slot := range []struct {
		name string
		ok   bool
	}{
		{"mic", p.Mic != nil},
		{"speaker", p.Speaker != nil},
		{"wake", p.Wake != nil},
		{"vad", p.VAD != nil},
		{"stt", p.STT != nil},
		{"tts", p.TTS != nil},
	} {
		if !slot.ok {
			missing = append(missing, slot.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("app: missing providers: %v", missing)
	}
	return nil
}

// buildHTTPServer assembles the metrics and health endpoint server.
func (a *App) buildHTTPServer(addr string) *http.Server {
	checkers := []health.Checker{
		{Name: "speech", Check: func(context.Context) error {
			if a.speech == nil {
				return errors.New("speech channel not initialised")
			}
			return nil
		}},
	}
	h := health.New(checkers, health.WithStateReporter(func() string {
		return a.orch.State().String()
	}))

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	h.Register(mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run starts the speech worker, the interaction pipeline, and the metrics
// server, blocking until ctx is cancelled or a voice command requests
// shutdown. In the latter case Run returns [pipeline.ErrExitRequested].
func (a *App) Run(ctx context.Context) error {
	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath, a.onConfigChange)
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			a.watcher = w
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.speech.Run(gctx)
	})
	g.Go(func() error {
		return a.orch.Run(gctx)
	})
	if a.httpSrv != nil {
		g.Go(func() error {
			slog.Info("metrics server listening", "addr", a.httpSrv.Addr)
			if err := a.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("app: metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.httpSrv.Shutdown(shutdownCtx)
		})
	}

	slog.Info("fireside running")
	return g.Wait()
}

// onConfigChange applies a reloaded configuration to the live subsystems.
func (a *App) onConfigChange(old, new *config.Config) {
	d := config.Diff(old, new)
	if d.Empty() {
		return
	}

	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(config.SlogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.PipelineChanged {
		a.orch.UpdateConfig(d.NewPipeline)
		slog.Info("pipeline tuning reloaded")
	}
	if d.WeatherChanged {
		a.weather.SetLocation(d.NewWeather)
		slog.Info("weather location reloaded", "location", d.NewWeather.Location)
	}
}

// Shutdown tears down the subsystems the app owns. Providers are closed by
// their creator (main.go).
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		slog.Info("shutting down")
		if a.watcher != nil {
			a.watcher.Stop()
		}
		a.timers.Close()
		a.reminders.Close()
		a.speech.Close()
		slog.Info("shutdown complete")
	})
	return ctx.Err()
}
