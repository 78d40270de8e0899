package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"satchel/internal/library"
	"satchel/internal/logging"
	"satchel/internal/queuedir"
	"satchel/internal/services"
)

// DrainSummary reports the outcome of one drain pass.
type DrainSummary struct {
	// Scanned counts pending queue files seen by the pass.
	Scanned int
	// Converted counts items whose record reached a settled state (ready,
	// reviewRequired, or terminally failed) and whose file was removed.
	Converted int
	// Retained counts items left on disk for a later pass.
	Retained int
	// Skipped is true when another consumer held the drain lock.
	Skipped bool
}

// ProcessPendingQueue drains the capture queue once. Only one consumer may
// drain at a time; when the lock is held elsewhere the pass is skipped
// rather than queued. Items are processed oldest first and a file is only
// removed after its record has been committed, so a crash mid-pass
// redelivers rather than loses work.
func (m *Manager) ProcessPendingQueue(ctx context.Context) (DrainSummary, error) {
	var summary DrainSummary

	if !m.consumerLock.Locked() {
		acquired, err := m.consumerLock.TryLock()
		if err != nil {
			return summary, services.Wrap(services.ErrStorage, "pipeline", "drain", "acquire consumer lock", err)
		}
		if !acquired {
			summary.Skipped = true
			m.logger.Debug("drain skipped, another consumer holds the lock")
			return summary, nil
		}
		defer func() {
			if err := m.consumerLock.Unlock(); err != nil {
				m.logger.Warn("release consumer lock", logging.Error(err))
			}
		}()
	}

	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		summary.Skipped = true
		return summary, nil
	}
	m.draining = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.draining = false
		m.mu.Unlock()
	}()

	pending, err := m.queue.ListPending()
	if err != nil {
		return summary, err
	}
	summary.Scanned = len(pending)
	if len(pending) == 0 {
		return summary, nil
	}

	start := time.Now()
	m.logger.Info("draining capture queue", logging.Int("pending", len(pending)))

	for _, p := range pending {
		if ctx.Err() != nil {
			summary.Retained += summary.Scanned - summary.Converted - summary.Retained
			break
		}
		settled, err := m.handlePending(ctx, p)
		if err != nil {
			m.logger.Error("queue item failed",
				logging.Error(err),
				logging.String(logging.FieldQueueFile, p.Path),
			)
		}
		if settled {
			if err := m.queue.Remove(p); err != nil {
				m.logger.Warn("remove queue file", logging.Error(err), logging.String(logging.FieldQueueFile, p.Path))
			}
			summary.Converted++
		} else {
			summary.Retained++
		}
	}

	m.logger.Info("drain complete",
		logging.Int("converted", summary.Converted),
		logging.Int("retained", summary.Retained),
		logging.Duration("elapsed", time.Since(start)),
	)
	if summary.Converted > 0 {
		if err := m.notifier.NotifyDrainCompleted(ctx, summary.Converted, summary.Retained, time.Since(start)); err != nil {
			m.logger.Warn("drain notification", logging.Error(err))
		}
	}
	return summary, nil
}

// handlePending converts one queue item. The returned bool reports whether
// the item is settled and its file should be removed; false keeps the file
// for redelivery on the next pass.
func (m *Manager) handlePending(ctx context.Context, p queuedir.Pending) (bool, error) {
	item := p.Item
	if err := item.Validate(); err != nil {
		// Malformed envelopes can never succeed; settle them so they stop
		// blocking the queue.
		return true, services.Wrap(services.ErrMalformedItem, "pipeline", "drain", p.Path, err)
	}

	record, err := m.upsertRecord(ctx, item)
	if err != nil {
		return false, err
	}
	if record == nil {
		// Another consumer or an archive beat us to it.
		return true, nil
	}

	err = m.processRecord(ctx, record, item)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, err
	}
	if !services.IsRetryable(err) {
		// Conflicts and validation failures settle immediately; retrying
		// cannot change the outcome.
		return true, err
	}
	if record.RetryCount >= m.cfg.Pipeline.RetryLimit {
		m.logger.Warn("retry limit reached",
			logging.String(logging.FieldRecordID, record.ID),
			logging.Int("retry_count", record.RetryCount),
		)
		return true, err
	}
	return false, err
}

// restoreStatus writes a record's status back without going through the
// transition table, used when a cancelled pass must undo an in-flight
// processing claim. It works from the stored copy, never the in-memory
// record: a cancelled pass may already have merged provider data into the
// latter, and none of that may be committed.
func (m *Manager) restoreStatus(recordID string, prior library.Status) {
	restoreCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stored, err := m.store.GetByID(restoreCtx, recordID)
	if err == nil && stored == nil {
		err = fmt.Errorf("record %s not found", recordID)
	}
	if err == nil {
		stored.Status = prior
		err = m.store.Update(restoreCtx, stored)
	}
	if err != nil {
		m.logger.Error("restore record status",
			logging.Error(err),
			logging.String(logging.FieldRecordID, recordID),
			logging.String(logging.FieldStatus, string(prior)),
		)
	}
}
