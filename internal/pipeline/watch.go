package pipeline

import (
	"context"
	"time"

	"satchel/internal/logging"
	"satchel/internal/services"
)

// Watch drains the queue on an interval until the context is cancelled.
// The consumer lock is held for the whole watch, so concurrent one-shot
// drains skip instead of contending.
func (m *Manager) Watch(ctx context.Context) error {
	acquired, err := m.consumerLock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrStorage, "pipeline", "watch", "acquire consumer lock", err)
	}
	if !acquired {
		return services.Wrap(services.ErrValidation, "pipeline", "watch", "another consumer is already draining this queue", nil)
	}
	defer func() {
		if err := m.consumerLock.Unlock(); err != nil {
			m.logger.Warn("release consumer lock", logging.Error(err))
		}
	}()

	interval := time.Duration(m.cfg.Pipeline.PollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	m.logger.Info("watching capture queue", logging.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := m.ProcessPendingQueue(ctx); err != nil {
			m.logger.Error("drain pass failed", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			m.logger.Info("watch stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
