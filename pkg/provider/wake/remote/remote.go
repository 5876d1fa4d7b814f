// Package remote implements wake.Detector against a wake-word scoring
// service over WebSocket (e.g. an openWakeWord server). The detector streams
// fixed-size binary PCM chunks and receives one JSON score message per chunk:
//
//	→ binary: 1280 samples of little-endian int16 PCM
//	← text:   {"model": "alexa_v0.1", "score": 0.91}
//
// The scoring model is selected when the socket is opened via a query
// parameter, so a single server can host several wake-word models.
package remote

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/MrWong99/fireside/pkg/provider/wake"
)

// Compile-time interface assertion.
var _ wake.Detector = (*Detector)(nil)

const (
	// defaultChunkSize is the model chunk size in samples. openWakeWord
	// predicts on 1280-sample (80 ms) chunks of 16 kHz audio.
	defaultChunkSize = 1280

	defaultModel       = "alexa_v0.1"
	defaultScoreWait   = 2 * time.Second
	defaultDialTimeout = 5 * time.Second
)

// Option is a functional option for configuring a Detector.
type Option func(*Detector)

// WithModel selects the wake-word model hosted by the scoring server.
// Defaults to "alexa_v0.1".
func WithModel(name string) Option {
	return func(d *Detector) { d.model = name }
}

// WithChunkSize overrides the model chunk size in samples. Defaults to 1280.
func WithChunkSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// WithScoreTimeout bounds how long Process waits for the server's score
// reply per chunk. Defaults to 2 s.
func WithScoreTimeout(t time.Duration) Option {
	return func(d *Detector) {
		if t > 0 {
			d.scoreWait = t
		}
	}
}

// scoreMessage is the server's per-chunk reply.
type scoreMessage struct {
	Model string  `json:"model"`
	Score float64 `json:"score"`
}

// resetMessage asks the server to clear its streaming model state.
type resetMessage struct {
	Type string `json:"type"`
}

// Detector implements wake.Detector over a WebSocket scoring service.
// It is stateful (audio buffer + server-side model state) and must not be
// shared between goroutines.
type Detector struct {
	conn      *websocket.Conn
	ctx       context.Context
	model     string
	chunkSize int
	scoreWait time.Duration

	buf []int16

	mu     sync.Mutex
	closed bool
}

// New dials the scoring service at baseURL (e.g. "ws://localhost:9002") and
// opens a scoring session. The caller must Close the detector when done.
func New(ctx context.Context, baseURL string, opts ...Option) (*Detector, error) {
	if baseURL == "" {
		return nil, errors.New("wake remote: baseURL must not be empty")
	}

	d := &Detector{
		ctx:       ctx,
		model:     defaultModel,
		chunkSize: defaultChunkSize,
		scoreWait: defaultScoreWait,
	}
	for _, o := range opts {
		o(d)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("wake remote: parse url %q: %w", baseURL, err)
	}
	q := u.Query()
	q.Set("model", d.model)
	u.RawQuery = q.Encode()

	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("wake remote: dial %q: %w", u.String(), err)
	}
	d.conn = conn
	return d, nil
}

// Process implements wake.Detector. Complete chunks are scored round-trip;
// the highest score among chunks completed by this frame is returned.
func (d *Detector) Process(frame []int16) (float64, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, errors.New("wake remote: detector closed")
	}
	d.mu.Unlock()

	d.buf = append(d.buf, frame...)

	var best float64
	for len(d.buf) >= d.chunkSize {
		chunk := d.buf[:d.chunkSize]
		d.buf = d.buf[d.chunkSize:]

		score, err := d.scoreChunk(chunk)
		if err != nil {
			return 0, err
		}
		if score > best {
			best = score
		}
	}
	return best, nil
}

// scoreChunk sends one model chunk and waits for the server's score reply.
func (d *Detector) scoreChunk(chunk []int16) (float64, error) {
	raw := make([]byte, len(chunk)*2)
	for i, s := range chunk {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	ctx, cancel := context.WithTimeout(d.ctx, d.scoreWait)
	defer cancel()

	if err := d.conn.Write(ctx, websocket.MessageBinary, raw); err != nil {
		return 0, fmt.Errorf("wake remote: send chunk: %w", err)
	}

	_, data, err := d.conn.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("wake remote: read score: %w", err)
	}

	var msg scoreMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, fmt.Errorf("wake remote: decode score: %w", err)
	}
	return msg.Score, nil
}

// Reset implements wake.Detector. Server errors during reset are ignored;
// the next chunk simply scores against slightly stale model state.
func (d *Detector) Reset() {
	d.buf = d.buf[:0]

	data, _ := json.Marshal(resetMessage{Type: "reset"})
	ctx, cancel := context.WithTimeout(d.ctx, d.scoreWait)
	defer cancel()
	_ = d.conn.Write(ctx, websocket.MessageText, data)
}

// Close implements wake.Detector.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.conn.Close(websocket.StatusNormalClosure, "detector closed")
}
