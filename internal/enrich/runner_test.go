package enrich_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"satchel/internal/enrich"
	"satchel/internal/logging"
)

type stubProvider struct {
	name     string
	priority int
	data     enrich.Data
	err      error
	delay    time.Duration
	panicNow bool
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Priority() int { return p.priority }

func (p *stubProvider) Enrich(ctx context.Context, _ enrich.Query) (enrich.Data, error) {
	if p.panicNow {
		panic("provider exploded")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return enrich.Data{}, ctx.Err()
		}
	}
	return p.data, p.err
}

func TestRunSortsByPriorityNotCompletionOrder(t *testing.T) {
	// The fast provider finishes first but carries the lowest priority; the
	// slow one must still come back first.
	slow := &stubProvider{
		name:     "structured",
		priority: enrich.PriorityStructured,
		data:     enrich.Data{Title: "Structured Title"},
		delay:    50 * time.Millisecond,
	}
	fast := &stubProvider{
		name:     "fallback",
		priority: enrich.PriorityFallback,
		data:     enrich.Data{Title: "Fallback Title"},
	}

	runner := enrich.NewRunner([]enrich.Provider{fast, slow}, time.Second, logging.NewNop())
	results := runner.Run(context.Background(), enrich.Query{CaptureID: "cap-1"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Provider != "structured" || results[1].Provider != "fallback" {
		t.Fatalf("unexpected order: %s, %s", results[0].Provider, results[1].Provider)
	}
}

func TestRunTiesBreakByProviderName(t *testing.T) {
	a := &stubProvider{name: "alpha", priority: enrich.PriorityStructured}
	b := &stubProvider{name: "beta", priority: enrich.PriorityStructured}

	runner := enrich.NewRunner([]enrich.Provider{b, a}, time.Second, logging.NewNop())
	results := runner.Run(context.Background(), enrich.Query{})

	if results[0].Provider != "alpha" || results[1].Provider != "beta" {
		t.Fatalf("unexpected tie-break order: %s, %s", results[0].Provider, results[1].Provider)
	}
}

func TestRunJoinsAllDespiteFailures(t *testing.T) {
	ok := &stubProvider{
		name:     "good",
		priority: enrich.PriorityStructured,
		data:     enrich.Data{Title: "Good"},
	}
	failing := &stubProvider{
		name:     "bad",
		priority: enrich.PriorityFallback,
		err:      errors.New("upstream unavailable"),
	}
	panicking := &stubProvider{
		name:     "worse",
		priority: enrich.PriorityFallback,
		panicNow: true,
	}

	runner := enrich.NewRunner([]enrich.Provider{ok, failing, panicking}, time.Second, logging.NewNop())
	results := runner.Run(context.Background(), enrich.Query{})

	if len(results) != 3 {
		t.Fatalf("expected all 3 results, got %d", len(results))
	}
	byName := make(map[string]enrich.Result, len(results))
	for _, result := range results {
		byName[result.Provider] = result
	}
	if byName["good"].Err != nil {
		t.Fatalf("good provider should succeed, got %v", byName["good"].Err)
	}
	if byName["bad"].Err == nil || byName["worse"].Err == nil {
		t.Fatal("failing providers must surface errors without aborting the pass")
	}
}

// stubbornProvider ignores cancellation and finishes on its own schedule,
// like an HTTP client stuck in a dial.
type stubbornProvider struct {
	name     string
	priority int
	data     enrich.Data
	delay    time.Duration
	finished chan struct{}
}

func (p *stubbornProvider) Name() string  { return p.name }
func (p *stubbornProvider) Priority() int { return p.priority }

func (p *stubbornProvider) Enrich(context.Context, enrich.Query) (enrich.Data, error) {
	defer close(p.finished)
	time.Sleep(p.delay)
	return p.data, nil
}

func TestRunSurvivesProviderFinishingAfterTimeout(t *testing.T) {
	stubborn := &stubbornProvider{
		name:     "stuck",
		priority: enrich.PriorityStructured,
		data:     enrich.Data{Title: "Too Late"},
		delay:    60 * time.Millisecond,
		finished: make(chan struct{}),
	}

	runner := enrich.NewRunner([]enrich.Provider{stubborn}, 10*time.Millisecond, logging.NewNop())
	results := runner.Run(context.Background(), enrich.Query{})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Fatal("expected timeout error")
	}
	if results[0].Data.Title != "" {
		t.Fatalf("abandoned provider must not contribute, got title %q", results[0].Data.Title)
	}

	// Let the abandoned goroutine write its outcome; the race detector
	// flags any access it still shares with the returned result.
	select {
	case <-stubborn.finished:
	case <-time.After(time.Second):
		t.Fatal("stubborn provider never finished")
	}
	if results[0].Data.Title != "" {
		t.Fatalf("result mutated after the pass returned: %q", results[0].Data.Title)
	}
}

func TestRunTreatsTimeoutAsNoResult(t *testing.T) {
	slow := &stubProvider{
		name:     "glacial",
		priority: enrich.PriorityStructured,
		data:     enrich.Data{Title: "Too Late"},
		delay:    time.Second,
	}
	fast := &stubProvider{
		name:     "quick",
		priority: enrich.PriorityFallback,
		data:     enrich.Data{Title: "Quick"},
	}

	runner := enrich.NewRunner([]enrich.Provider{slow, fast}, 30*time.Millisecond, logging.NewNop())
	results := runner.Run(context.Background(), enrich.Query{})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Provider != "glacial" || results[0].Err == nil {
		t.Fatalf("expected glacial timeout error first, got %+v", results[0])
	}
	if results[1].Err != nil {
		t.Fatalf("quick provider should not be affected: %v", results[1].Err)
	}

	merged := enrich.Merge(results)
	if merged.Title != "Quick" {
		t.Fatalf("timed-out provider must not contribute, got title %q", merged.Title)
	}
}
