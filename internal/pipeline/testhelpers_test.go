package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"satchel/internal/config"
	"satchel/internal/enrich"
	"satchel/internal/enrich/purpose"
	"satchel/internal/library"
	"satchel/internal/links"
	"satchel/internal/pipeline"
	"satchel/internal/queuedir"
	"satchel/internal/testsupport"
)

// stubProvider returns canned enrichment data or errors for every query.
type stubProvider struct {
	name     string
	priority int
	data     enrich.Data
	err      error

	mu    sync.Mutex
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Priority() int { return s.priority }

func (s *stubProvider) Enrich(_ context.Context, _ enrich.Query) (enrich.Data, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return enrich.Data{}, s.err
	}
	return s.data, nil
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubSuggester returns a fixed suggestion.
type stubSuggester struct {
	suggestion purpose.Suggestion
	err        error
}

func (s stubSuggester) Suggest(_ context.Context, _ purpose.Input) (purpose.Suggestion, error) {
	return s.suggestion, s.err
}

// recordingNotifier counts notifications instead of posting them.
type recordingNotifier struct {
	mu       sync.Mutex
	queued   []string
	ready    []string
	reviewed []string
	errs     []string
	drains   int
}

func (r *recordingNotifier) NotifyCaptureQueued(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, title)
	return nil
}

func (r *recordingNotifier) NotifyRecordReady(_ context.Context, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = append(r.ready, title)
	return nil
}

func (r *recordingNotifier) NotifyReviewRequired(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviewed = append(r.reviewed, title)
	return nil
}

func (r *recordingNotifier) NotifyDrainCompleted(_ context.Context, _, _ int, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drains++
	return nil
}

func (r *recordingNotifier) NotifyError(_ context.Context, err error, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err.Error())
	return nil
}

func (r *recordingNotifier) TestNotification(_ context.Context) error { return nil }

type testEnv struct {
	manager  *pipeline.Manager
	store    *library.Store
	queue    *queuedir.Store
	notifier *recordingNotifier
	cfg      *config.Config
}

func newTestEnv(t *testing.T, providers []enrich.Provider, cfgOpts ...testsupport.ConfigOption) *testEnv {
	t.Helper()
	return newTestEnvWithOptions(t, providers, nil, cfgOpts...)
}

func newTestEnvWithOptions(t *testing.T, providers []enrich.Provider, mgrOpts []pipeline.Option, cfgOpts ...testsupport.ConfigOption) *testEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, cfgOpts...)
	store := testsupport.MustOpenLibrary(t, cfg)
	queue := testsupport.MustOpenQueue(t, cfg)
	notifier := &recordingNotifier{}

	wrapper, err := links.NewWrapper(cfg.Links.Secret, cfg.Links.Host, cfg.Links.Scheme)
	if err != nil {
		t.Fatalf("links.NewWrapper: %v", err)
	}

	opts := append([]pipeline.Option{
		pipeline.WithNotifier(notifier),
		pipeline.WithWrapper(wrapper),
	}, mgrOpts...)
	manager := pipeline.NewManager(cfg, queue, store, providers, nil, opts...)
	return &testEnv{
		manager:  manager,
		store:    store,
		queue:    queue,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (e *testEnv) mustGet(t *testing.T, id string) *library.Record {
	t.Helper()

	record, err := e.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%s): %v", id, err)
	}
	if record == nil {
		t.Fatalf("record %s not found", id)
	}
	return record
}

func (e *testEnv) queueLen(t *testing.T) int {
	t.Helper()

	n, err := e.queue.Len()
	if err != nil {
		t.Fatalf("queue.Len: %v", err)
	}
	return n
}
