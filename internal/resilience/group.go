package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [Group] fails or is behind
// an open breaker.
var ErrAllFailed = errors.New("resilience: all providers failed")

// GroupConfig configures the breaker created for each entry in a [Group].
type GroupConfig struct {
	Breaker BreakerConfig
}

type groupEntry[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// Group wraps a primary and zero or more fallbacks of the same provider type,
// each behind its own [Breaker]. Entries are tried in registration order.
//
// Fallbacks must be registered before the first call; after that the Group is
// safe for concurrent use.
type Group[T any] struct {
	entries []groupEntry[T]
	cfg     GroupConfig
}

// NewGroup creates a [Group] with primary as the first entry.
func NewGroup[T any](primary T, primaryName string, cfg GroupConfig) *Group[T] {
	g := &Group[T]{cfg: cfg}
	g.AddFallback(primaryName, primary)
	return g
}

// AddFallback appends a provider tried after all earlier entries.
func (g *Group[T]) AddFallback(name string, provider T) {
	bc := g.cfg.Breaker
	bc.Name = name
	g.entries = append(g.entries, groupEntry[T]{
		name:    name,
		value:   provider,
		breaker: NewBreaker(bc),
	})
}

// Do tries fn against each entry in order until one succeeds, skipping
// entries whose breaker is open. It returns the successful entry's result, or
// [ErrAllFailed] wrapping the last error when every entry fails.
//
// Do is a package-level function because Go has no method-level type
// parameters.
func Do[T, R any](g *Group[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range g.entries {
		entry := &g.entries[i]
		var result R
		err := entry.breaker.Do(func() error {
			var callErr error
			result, callErr = fn(entry.value)
			return callErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrBreakerOpen) {
			slog.Debug("provider skipped", "provider", entry.name)
			continue
		}
		slog.Warn("provider failed, trying next", "provider", entry.name, "err", err)
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
