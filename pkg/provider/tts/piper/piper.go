// Package piper provides a tts.Synthesizer backed by a locally-running Piper
// HTTP server (the `piper --http` mode or the rhasspy/wyoming-piper container
// with its HTTP endpoint enabled).
//
// Synthesis is performed via GET / with the text in a URL query parameter;
// the server responds with a RIFF/WAVE body that is decoded into raw PCM.
//
// Typical usage:
//
//	p, err := piper.New("http://localhost:5000",
//	    piper.WithTimeout(15*time.Second),
//	)
//	clip, err := p.Synthesize(ctx, "It is ten thirty.")
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrWong99/fireside/pkg/audio"
	"github.com/MrWong99/fireside/pkg/provider/tts"
	"github.com/go-audio/wav"
)

// Compile-time interface assertion.
var _ tts.Synthesizer = (*Synthesizer)(nil)

const defaultTimeout = 30 * time.Second

// defaultPronunciations maps words Piper mangles to spellings it renders
// correctly. Applied case-insensitively on whole words before synthesis.
var defaultPronunciations = map[string]string{
	"pm":  "p m",
	"am":  "a y m",
	"mph": "miles per hour",
}

// Option is a functional option for configuring a piper Synthesizer.
type Option func(*Synthesizer)

// WithTimeout sets the per-request HTTP timeout for calls to the Piper
// server. Defaults to 30 s if not set.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) { s.httpClient.Timeout = d }
}

// WithVoice sets the voice model name sent with each request. When empty
// (default), the server's configured voice is used.
func WithVoice(voice string) Option {
	return func(s *Synthesizer) { s.voice = voice }
}

// WithPronunciations merges extra word replacements into the built-in
// pronunciation table. Keys match whole words, case-insensitively.
func WithPronunciations(fixes map[string]string) Option {
	return func(s *Synthesizer) {
		for k, v := range fixes {
			s.pronunciations[strings.ToLower(k)] = v
		}
	}
}

// Synthesizer implements tts.Synthesizer backed by a Piper HTTP server.
// It is safe for concurrent use.
type Synthesizer struct {
	serverURL      string
	voice          string
	httpClient     *http.Client
	pronunciations map[string]string
}

// New creates a Synthesizer targeting the Piper server at serverURL
// (e.g., "http://localhost:5000"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Synthesizer, error) {
	if serverURL == "" {
		return nil, errors.New("piper: serverURL must not be empty")
	}
	s := &Synthesizer{
		serverURL:      strings.TrimRight(serverURL, "/"),
		httpClient:     &http.Client{Timeout: defaultTimeout},
		pronunciations: make(map[string]string, len(defaultPronunciations)),
	}
	for k, v := range defaultPronunciations {
		s.pronunciations[k] = v
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Synthesize performs a single GET / request against the Piper server and
// decodes the WAV response into a mono PCM clip.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return audio.Clip{}, nil
	}
	text = s.applyPronunciations(text)

	params := url.Values{}
	params.Set("text", text)
	if s.voice != "" {
		params.Set("voice", s.voice)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.serverURL+"/?"+params.Encode(), nil)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("piper: create tts request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("piper: GET /: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return audio.Clip{}, fmt.Errorf("piper: GET / returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("piper: read WAV response: %w", err)
	}
	return decodeWAV(body)
}

// applyPronunciations rewrites whole words per the pronunciation table,
// matching case-insensitively and preserving surrounding punctuation.
func (s *Synthesizer) applyPronunciations(text string) string {
	if len(s.pronunciations) == 0 {
		return text
	}
	words := strings.Fields(text)
	for i, w := range words {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !isWordRune(r)
		})
		if trimmed == "" {
			continue
		}
		if fix, ok := s.pronunciations[strings.ToLower(trimmed)]; ok {
			words[i] = strings.Replace(w, trimmed, fix, 1)
		}
	}
	return strings.Join(words, " ")
}

func isWordRune(r rune) bool {
	return r == '\'' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// decodeWAV parses a RIFF/WAVE body into a mono int16 clip. Stereo input is
// downmixed by averaging channels.
func decodeWAV(data []byte) (audio.Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return audio.Clip{}, fmt.Errorf("piper: decode WAV response: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return audio.Clip{}, errors.New("piper: WAV response missing format chunk")
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	pcm := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		pcm[i] = clampInt16(sum / channels)
	}
	return audio.Clip{PCM: pcm, SampleRate: buf.Format.SampleRate}, nil
}

func clampInt16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
