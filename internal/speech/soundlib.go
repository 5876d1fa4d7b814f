package speech

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-audio/wav"

	"github.com/MrWong99/fireside/pkg/audio"
)

// Library loads and caches sound-effect clips from a directory of WAV files.
// Clips are decoded lazily on first use and held in memory afterwards; the
// library is safe for concurrent use.
type Library struct {
	dir string

	mu    sync.Mutex
	cache map[string]audio.Clip
}

// NewLibrary creates a Library over dir. The directory is not scanned up
// front; a missing directory simply means every lookup fails.
func NewLibrary(dir string) *Library {
	return &Library{
		dir:   dir,
		cache: make(map[string]audio.Clip),
	}
}

// Get returns the named clip, decoding it from disk on first use. The name
// may omit the .wav extension. Lookups never escape the library directory.
func (l *Library) Get(name string) (audio.Clip, error) {
	if l == nil || l.dir == "" {
		return audio.Clip{}, fmt.Errorf("speech: no sound library configured")
	}
	name = filepath.Base(name)
	if !strings.Contains(name, ".") {
		name += ".wav"
	}

	l.mu.Lock()
	clip, ok := l.cache[name]
	l.mu.Unlock()
	if ok {
		return clip, nil
	}

	clip, err := loadWAV(filepath.Join(l.dir, name))
	if err != nil {
		return audio.Clip{}, err
	}

	l.mu.Lock()
	l.cache[name] = clip
	l.mu.Unlock()
	return clip, nil
}

// loadWAV decodes a WAV file into a mono int16 clip, downmixing stereo by
// averaging channels.
func loadWAV(path string) (audio.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("speech: open sound %q: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return audio.Clip{}, fmt.Errorf("speech: decode sound %q: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return audio.Clip{}, fmt.Errorf("speech: sound %q missing format chunk", path)
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	pcm := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		v := sum / channels
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		pcm[i] = int16(v)
	}
	return audio.Clip{PCM: pcm, SampleRate: buf.Format.SampleRate}, nil
}
