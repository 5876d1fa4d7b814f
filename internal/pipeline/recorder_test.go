package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/fireside/internal/pipeline"
	"github.com/MrWong99/fireside/pkg/audio"
	audiomock "github.com/MrWong99/fireside/pkg/audio/mock"
	vadmock "github.com/MrWong99/fireside/pkg/provider/vad/mock"
)

// frameLen is 30 ms at the default sample rate.
const frameLen = 480

// frames builds n scripted frames filled with the given sample value.
func frames(src *audiomock.Source, n int, value int16) {
	for i := 0; i < n; i++ {
		pcm := make([]int16, frameLen)
		for j := range pcm {
			pcm[j] = value
		}
		src.Push(pcm)
	}
}

func testConfig() pipeline.RecorderConfig {
	return pipeline.RecorderConfig{
		SpeechThreshold: 0.5,
		GraceTimeout:    150 * time.Millisecond,
		SilenceTimeout:  90 * time.Millisecond,
		MaxDuration:     3 * time.Second,
	}
}

func TestRecordEndsOnTrailingSilence(t *testing.T) {
	t.Parallel()
	src := audiomock.NewSource()
	frames(src, 1, 0)    // leading silence
	frames(src, 4, 1000) // speech
	frames(src, 6, 0)    // trailing silence
	session := &vadmock.Session{
		Probabilities: []float64{0.1, 0.9, 0.9, 0.9, 0.9, 0.1},
	}

	rec := pipeline.NewRecorder(session, testConfig())
	pcm, rate, err := rec.Record(context.Background(), src)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rate != audio.DefaultSampleRate {
		t.Errorf("sample rate = %d, want %d", rate, audio.DefaultSampleRate)
	}
	if len(pcm) == 0 {
		t.Fatal("no audio captured")
	}
	// The speech span must survive trimming.
	var speech int
	for _, v := range pcm {
		if v != 0 {
			speech++
		}
	}
	if want := 4 * frameLen; speech != want {
		t.Errorf("speech samples = %d, want %d", speech, want)
	}
	if session.ResetCalls != 1 {
		t.Errorf("vad session reset %d times, want 1", session.ResetCalls)
	}
}

func TestRecordAbandonsWithoutSpeech(t *testing.T) {
	t.Parallel()
	src := audiomock.NewSource()
	frames(src, 10, 0)
	session := &vadmock.Session{Probabilities: []float64{0.1}}

	rec := pipeline.NewRecorder(session, testConfig())
	_, _, err := rec.Record(context.Background(), src)
	if !errors.Is(err, pipeline.ErrNoSpeech) {
		t.Fatalf("err = %v, want ErrNoSpeech", err)
	}
}

func TestRecordIgnoresSingleHotFrame(t *testing.T) {
	t.Parallel()
	src := audiomock.NewSource()
	frames(src, 10, 500)
	// One transient frame over the threshold, then quiet again.
	session := &vadmock.Session{Probabilities: []float64{0.1, 0.9, 0.1}}

	rec := pipeline.NewRecorder(session, testConfig())
	_, _, err := rec.Record(context.Background(), src)
	if !errors.Is(err, pipeline.ErrNoSpeech) {
		t.Fatalf("err = %v, want ErrNoSpeech for a transient", err)
	}
}

func TestRecordForceEndsAtMaxDuration(t *testing.T) {
	t.Parallel()
	src := audiomock.NewSource()
	frames(src, 20, 1000)
	session := &vadmock.Session{Probabilities: []float64{0.9}}

	cfg := testConfig()
	cfg.MaxDuration = 300 * time.Millisecond // 10 frames
	rec := pipeline.NewRecorder(session, cfg)

	pcm, _, err := rec.Record(context.Background(), src)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if max := 10 * frameLen; len(pcm) > max {
		t.Errorf("captured %d samples, cap is %d", len(pcm), max)
	}
}

func TestRecordPropagatesSourceErrors(t *testing.T) {
	t.Parallel()
	src := audiomock.NewSource()
	src.Err = audio.ErrSourceClosed
	session := &vadmock.Session{}

	rec := pipeline.NewRecorder(session, testConfig())
	_, _, err := rec.Record(context.Background(), src)
	if !errors.Is(err, audio.ErrSourceClosed) {
		t.Fatalf("err = %v, want ErrSourceClosed", err)
	}
}
