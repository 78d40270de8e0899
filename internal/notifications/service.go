package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"satchel/internal/config"
)

const userAgent = "Satchel/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyCaptureQueued(ctx context.Context, title, captureType string) error
	NotifyRecordReady(ctx context.Context, title string) error
	NotifyReviewRequired(ctx context.Context, title, reason string) error
	NotifyDrainCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:       topic,
		client:         client,
		captureQueued:  cfg.Notifications.CaptureQueued,
		recordReady:    cfg.Notifications.RecordReady,
		reviewRequired: cfg.Notifications.ReviewRequired,
		errors:         cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client

	captureQueued  bool
	recordReady    bool
	reviewRequired bool
	errors         bool
}

func (n *ntfyService) NotifyCaptureQueued(ctx context.Context, title, captureType string) error {
	if !n.captureQueued {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled capture"
	}
	captureType = strings.TrimSpace(captureType)
	if captureType == "" {
		captureType = "unknown"
	}
	data := payload{
		title:   "Satchel - Capture Queued",
		message: fmt.Sprintf("Queued: %s (%s)", title, captureType),
		tags:    []string{"satchel", "capture", "queued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecordReady(ctx context.Context, title string) error {
	if !n.recordReady {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Satchel - Ready",
		message: fmt.Sprintf("Processed: %s", title),
		tags:    []string{"satchel", "record", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewRequired(ctx context.Context, title, reason string) error {
	if !n.reviewRequired {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Needs review: %s", title)
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:    "Satchel - Review Required",
		message:  message,
		tags:     []string{"satchel", "review"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDrainCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.recordReady {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var message string
	var title string
	if failed == 0 {
		title = "Satchel - Queue Drained"
		message = fmt.Sprintf("Queue drain complete: %d items processed in %s", processed, durationText)
	} else {
		title = "Satchel - Queue Drained (with errors)"
		message = fmt.Sprintf("Queue drain complete: %d succeeded, %d failed in %s", processed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"satchel", "queue", "drained"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Satchel - Error",
		message:  builder.String(),
		tags:     []string{"satchel", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Satchel - Test",
		message:  "Notification system test",
		tags:     []string{"satchel", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyCaptureQueued(context.Context, string, string) error { return nil }
func (noopService) NotifyRecordReady(context.Context, string) error           { return nil }
func (noopService) NotifyReviewRequired(context.Context, string, string) error {
	return nil
}
func (noopService) NotifyDrainCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
