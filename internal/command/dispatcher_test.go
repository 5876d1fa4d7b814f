package command_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/fireside/internal/command"
	"github.com/MrWong99/fireside/internal/observe"
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	m, err := observe.NewMetrics(metric.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

// fixed returns a command that always scores s and replies with text.
func fixed(name string, s float64, text string) command.Func {
	return command.Func{
		CmdName:   name,
		ScoreFunc: func(string) float64 { return s },
		HandleFn: func(context.Context, string) (command.Response, error) {
			return command.Response{Text: text}, nil
		},
	}
}

func TestDispatchPicksHighestScore(t *testing.T) {
	t.Parallel()
	d := command.NewDispatcher([]command.Command{
		fixed("low", 0.2, "low wins"),
		fixed("high", 0.9, "high wins"),
		fixed("mid", 0.5, "mid wins"),
	}, command.WithMetrics(testMetrics(t)))

	resp := d.Dispatch(context.Background(), "anything")
	if resp.Text != "high wins" {
		t.Errorf("response = %q, want %q", resp.Text, "high wins")
	}
}

func TestDispatchTieGoesToFirstRegistered(t *testing.T) {
	t.Parallel()
	d := command.NewDispatcher([]command.Command{
		fixed("first", 0.7, "first wins"),
		fixed("second", 0.7, "second wins"),
	}, command.WithMetrics(testMetrics(t)))

	resp := d.Dispatch(context.Background(), "anything")
	if resp.Text != "first wins" {
		t.Errorf("response = %q, want %q", resp.Text, "first wins")
	}
}

func TestDispatchZeroScoresFallBack(t *testing.T) {
	t.Parallel()
	d := command.NewDispatcher([]command.Command{
		fixed("a", 0, "never"),
		fixed("b", 0, "never"),
	}, command.WithMetrics(testMetrics(t)))

	resp := d.Dispatch(context.Background(), "turn on the lights")
	want := "I heard you say: turn on the lights"
	if resp.Text != want {
		t.Errorf("response = %q, want %q", resp.Text, want)
	}
	if resp.Action != command.ActionNone {
		t.Errorf("action = %v, want ActionNone", resp.Action)
	}
}

func TestDispatchNoCommandsFallsBack(t *testing.T) {
	t.Parallel()
	d := command.NewDispatcher(nil, command.WithMetrics(testMetrics(t)))
	resp := d.Dispatch(context.Background(), "hello")
	if resp.Text != "I heard you say: hello" {
		t.Errorf("response = %q", resp.Text)
	}
}

func TestDispatchHandlerErrorIsSpoken(t *testing.T) {
	t.Parallel()
	failing := command.Func{
		CmdName:   "boom",
		ScoreFunc: func(string) float64 { return 1 },
		HandleFn: func(context.Context, string) (command.Response, error) {
			return command.Response{}, errors.New("backend down")
		},
	}
	d := command.NewDispatcher([]command.Command{failing},
		command.WithMetrics(testMetrics(t)))

	resp := d.Dispatch(context.Background(), "do the thing")
	if resp.Text == "" {
		t.Fatal("handler error should produce a spoken acknowledgment")
	}
	if resp.Action != command.ActionNone {
		t.Errorf("action = %v, want ActionNone", resp.Action)
	}
}

type denyGate struct {
	resp command.Response
}

func (g denyGate) Allow(string) (bool, command.Response) { return false, g.resp }

func TestDispatchGateSuppresses(t *testing.T) {
	t.Parallel()
	cmd := fixed("never", 1, "should not run")
	d := command.NewDispatcher([]command.Command{cmd},
		command.WithGate(denyGate{resp: command.Response{Text: "shh"}}),
		command.WithMetrics(testMetrics(t)))

	resp := d.Dispatch(context.Background(), "hello")
	if resp.Text != "shh" {
		t.Errorf("response = %q, want gate response", resp.Text)
	}
}

func TestLastResponse(t *testing.T) {
	t.Parallel()
	d := command.NewDispatcher([]command.Command{
		fixed("echo", 1, "the answer is four"),
	}, command.WithMetrics(testMetrics(t)))

	if got := d.LastResponse(); got != "" {
		t.Errorf("initial LastResponse = %q, want empty", got)
	}
	d.Dispatch(context.Background(), "question")
	if got := d.LastResponse(); got != "the answer is four" {
		t.Errorf("LastResponse = %q", got)
	}
}
