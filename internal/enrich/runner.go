package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"satchel/internal/logging"
	"satchel/internal/services"
)

// Result pairs a provider's contribution with its outcome.
type Result struct {
	Provider string
	Priority int
	Data     Data
	Err      error
	Elapsed  time.Duration
}

// Runner fans a query out to a fixed, ordered set of providers.
type Runner struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewRunner builds a runner. Each provider call is bounded by timeout.
func NewRunner(providers []Provider, timeout time.Duration, logger *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		providers: providers,
		timeout:   timeout,
		logger:    logging.WithComponent(logger, "enrich"),
	}
}

// Providers returns the configured provider set.
func (r *Runner) Providers() []Provider {
	return r.providers
}

// Run invokes every provider concurrently and waits for all of them
// (join-all, not fail-fast). One provider's panic, error, or timeout never
// aborts the others. Results come back sorted by descending priority, then
// provider name, so merging is deterministic regardless of completion
// order.
func (r *Runner) Run(ctx context.Context, query Query) []Result {
	results := make([]Result, len(r.providers))
	var wg sync.WaitGroup

	for i, provider := range r.providers {
		wg.Add(1)
		go func(idx int, p Provider) {
			defer wg.Done()
			results[idx] = r.runOne(ctx, p, query)
		}(i, provider)
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Priority != results[j].Priority {
			return results[i].Priority > results[j].Priority
		}
		return results[i].Provider < results[j].Provider
	})
	return results
}

func (r *Runner) runOne(ctx context.Context, provider Provider, query Query) Result {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// The goroutine owns its Result until it hands it over the channel, so a
	// timed-out call never shares memory with a still-running provider. The
	// buffer lets an abandoned goroutine finish without blocking.
	done := make(chan Result, 1)
	go func() {
		outcome := Result{Provider: provider.Name(), Priority: provider.Priority()}
		defer func() {
			if recovered := recover(); recovered != nil {
				outcome.Err = services.Wrap(services.ErrProvider, "enrich", provider.Name(), fmt.Sprintf("panic: %v", recovered), nil)
			}
			done <- outcome
		}()
		data, err := provider.Enrich(callCtx, query)
		if err != nil {
			outcome.Err = services.Wrap(services.ErrProvider, "enrich", provider.Name(), "enrich", err)
			return
		}
		outcome.Data = data
	}()

	var result Result
	select {
	case result = <-done:
	case <-callCtx.Done():
		// Timed-out providers count as "no result"; the goroutine is left
		// to drain against the cancelled context.
		result = Result{
			Provider: provider.Name(),
			Priority: provider.Priority(),
			Err:      services.Wrap(services.ErrProvider, "enrich", provider.Name(), "timeout", callCtx.Err()),
		}
	}

	result.Elapsed = time.Since(start)
	if result.Err != nil {
		r.logger.Debug("provider returned no result",
			logging.Error(result.Err),
			logging.String(logging.FieldProvider, provider.Name()),
			logging.Duration("elapsed", result.Elapsed),
		)
	}
	return result
}
