package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"satchel/internal/config"
	"satchel/internal/enrich"
	"satchel/internal/enrich/purpose"
	"satchel/internal/library"
	"satchel/internal/links"
	"satchel/internal/logging"
	"satchel/internal/notifications"
	"satchel/internal/queuedir"
	"satchel/internal/sessions"
)

// Manager coordinates queue draining and record enrichment.
type Manager struct {
	cfg       *config.Config
	queue     *queuedir.Store
	store     *library.Store
	runner    *enrich.Runner
	suggester purpose.Suggester
	sessions  *sessions.Service
	wrapper   *links.Wrapper
	notifier  notifications.Service
	logger    *slog.Logger

	// consumerLock bounds draining to one consumer process. Correctness
	// does not depend on it; concurrent drains would only duplicate work.
	consumerLock *flock.Flock

	mu       sync.Mutex
	draining bool
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithWrapper installs the link codec used for deep-link ingestion.
func WithWrapper(wrapper *links.Wrapper) Option {
	return func(m *Manager) { m.wrapper = wrapper }
}

// WithSuggester overrides the purpose suggester (used in tests and when an
// LLM-backed implementation is configured).
func WithSuggester(suggester purpose.Suggester) Option {
	return func(m *Manager) { m.suggester = suggester }
}

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notifications.Service) Option {
	return func(m *Manager) { m.notifier = notifier }
}

// NewManager constructs a pipeline manager over the given stores and
// provider set.
func NewManager(cfg *config.Config, queue *queuedir.Store, store *library.Store, providers []enrich.Provider, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:          cfg,
		queue:        queue,
		store:        store,
		runner:       enrich.NewRunner(providers, time.Duration(cfg.Pipeline.ProviderTimeout)*time.Second, logger),
		suggester:    purpose.Heuristic{},
		sessions:     sessions.NewService(store, queue, logger),
		notifier:     notifications.NewService(cfg),
		logger:       logging.WithComponent(logger, "pipeline"),
		consumerLock: flock.New(cfg.ConsumerLockPath()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sessions exposes the session service sharing this manager's stores.
func (m *Manager) Sessions() *sessions.Service {
	return m.sessions
}
