// Package portaudio provides microphone capture and speaker playback backed
// by PortAudio. It implements the audio.Source and audio.Sink interfaces.
//
// Device selection follows a preferred-name priority list (substring match,
// the way USB conference mics and headsets show up with stable name prefixes)
// and falls back to the system default device. A missing or unopenable device
// is reported as an error from the constructor so that startup can fail fast.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/MrWong99/fireside/pkg/audio"
)

// Compile-time interface assertions.
var (
	_ audio.Source = (*MicSource)(nil)
	_ audio.Sink   = (*Speaker)(nil)
)

const (
	// DefaultFrameSize is the capture block size in samples (30 ms at 16 kHz).
	DefaultFrameSize = 480

	// playChunk is the playback write size in samples.
	playChunk = 1024
)

// SourceConfig holds capture parameters for NewMicSource.
type SourceConfig struct {
	// SampleRate in Hz. Defaults to audio.DefaultSampleRate.
	SampleRate int

	// FrameSize is the number of samples per frame. Defaults to
	// DefaultFrameSize.
	FrameSize int

	// PreferredDevices is a priority-ordered list of input device name
	// substrings. The first available match wins; an empty list (or no match)
	// selects the system default input device.
	PreferredDevices []string
}

// MicSource captures mono int16 PCM from a PortAudio input device.
//
// NextFrame must be called from a single goroutine; the fireside orchestrator
// is the sole owner of the microphone by design.
type MicSource struct {
	stream *pa.Stream
	buf    []int16
	rate   int
	seq    uint64

	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
}

// NewMicSource initialises PortAudio, selects an input device per cfg, and
// starts the capture stream. The caller must Close the source to release the
// device and the PortAudio runtime.
func NewMicSource(cfg SourceConfig) (*MicSource, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = DefaultFrameSize
	}

	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialise: %w", err)
	}

	dev, err := findInputDevice(cfg.PreferredDevices)
	if err != nil {
		_ = pa.Terminate()
		return nil, err
	}

	buf := make([]int16, cfg.FrameSize)
	params := pa.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.FrameSize

	stream, err := pa.OpenStream(params, &buf)
	if err != nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("portaudio: open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = pa.Terminate()
		return nil, fmt.Errorf("portaudio: start input stream: %w", err)
	}

	if dev != nil {
		slog.Info("microphone opened", "device", dev.Name, "sample_rate", cfg.SampleRate, "frame_size", cfg.FrameSize)
	}
	return &MicSource{stream: stream, buf: buf, rate: cfg.SampleRate}, nil
}

// NextFrame implements audio.Source. The underlying PortAudio read is not
// interruptible; ctx cancellation is honoured between frames, which bounds
// the delay at one frame duration.
func (m *MicSource) NextFrame(ctx context.Context) (audio.Frame, error) {
	if err := ctx.Err(); err != nil {
		return audio.Frame{}, err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return audio.Frame{}, audio.ErrSourceClosed
	}
	m.mu.Unlock()

	if err := m.stream.Read(); err != nil {
		return audio.Frame{}, fmt.Errorf("portaudio: read frame: %w", err)
	}

	pcm := make([]int16, len(m.buf))
	copy(pcm, m.buf)
	f := audio.Frame{PCM: pcm, Seq: m.seq, SampleRate: m.rate}
	m.seq++
	return f, nil
}

// Close implements audio.Source.
func (m *MicSource) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		if e := m.stream.Stop(); e != nil && !errors.Is(e, pa.StreamIsStopped) {
			err = e
		}
		if e := m.stream.Close(); e != nil && err == nil {
			err = e
		}
		_ = pa.Terminate()
	})
	return err
}

// SinkConfig holds playback parameters for NewSpeaker.
type SinkConfig struct {
	// SampleRate is the rate clips are converted to before playback.
	// Defaults to audio.DefaultSampleRate. For best quality this should be
	// the device's native rate (e.g. 48000).
	SampleRate int

	// PreferredDevices is a priority-ordered list of output device name
	// substrings, matched like SourceConfig.PreferredDevices.
	PreferredDevices []string
}

// Speaker renders clips to a PortAudio output device.
type Speaker struct {
	mu     sync.Mutex
	stream *pa.Stream
	buf    []int16
	rate   int
	closed bool

	closeOnce sync.Once
	closeErr  error
}

// NewSpeaker initialises PortAudio and opens an output stream. The caller
// must Close the speaker to release the device.
func NewSpeaker(cfg SinkConfig) (*Speaker, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}

	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialise: %w", err)
	}

	dev, err := findOutputDevice(cfg.PreferredDevices)
	if err != nil {
		_ = pa.Terminate()
		return nil, err
	}

	buf := make([]int16, playChunk)
	params := pa.LowLatencyParameters(nil, dev)
	params.Output.Channels = 1
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = playChunk

	stream, err := pa.OpenStream(params, &buf)
	if err != nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("portaudio: open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = pa.Terminate()
		return nil, fmt.Errorf("portaudio: start output stream: %w", err)
	}

	return &Speaker{stream: stream, buf: buf, rate: cfg.SampleRate}, nil
}

// Play implements audio.Sink: the clip is resampled to the device rate if
// needed and written in chunks, checking ctx between writes.
func (s *Speaker) Play(ctx context.Context, clip audio.Clip) error {
	if clip.Empty() {
		return nil
	}
	clip = audio.Resample(clip, s.rate)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("portaudio: speaker closed")
	}

	pcm := clip.PCM
	for len(pcm) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(s.buf, pcm)
		// Zero-pad the tail chunk so stale samples are not replayed.
		for i := n; i < len(s.buf); i++ {
			s.buf[i] = 0
		}
		if err := s.stream.Write(); err != nil {
			return fmt.Errorf("portaudio: write chunk: %w", err)
		}
		pcm = pcm[n:]
	}
	return nil
}

// Close implements audio.Sink.
func (s *Speaker) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		if e := s.stream.Stop(); e != nil && !errors.Is(e, pa.StreamIsStopped) {
			s.closeErr = e
		}
		if e := s.stream.Close(); e != nil && s.closeErr == nil {
			s.closeErr = e
		}
		_ = pa.Terminate()
	})
	return s.closeErr
}

// findInputDevice selects the first input-capable device whose name contains
// one of the preferred substrings, in priority order. Returns nil (system
// default) when preferred is empty or nothing matches.
func findInputDevice(preferred []string) (*pa.DeviceInfo, error) {
	return findDevice(preferred, func(d *pa.DeviceInfo) bool { return d.MaxInputChannels > 0 }, pa.DefaultInputDevice)
}

func findOutputDevice(preferred []string) (*pa.DeviceInfo, error) {
	return findDevice(preferred, func(d *pa.DeviceInfo) bool { return d.MaxOutputChannels > 0 }, pa.DefaultOutputDevice)
}

func findDevice(preferred []string, usable func(*pa.DeviceInfo) bool, def func() (*pa.DeviceInfo, error)) (*pa.DeviceInfo, error) {
	devices, err := pa.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio: enumerate devices: %w", err)
	}

	for _, want := range preferred {
		for _, d := range devices {
			if usable(d) && strings.Contains(d.Name, want) {
				return d, nil
			}
		}
	}

	d, err := def()
	if err != nil {
		return nil, fmt.Errorf("portaudio: no usable device: %w", err)
	}
	return d, nil
}
