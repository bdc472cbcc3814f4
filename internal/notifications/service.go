package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"captionsync/internal/config"
	"captionsync/internal/rating"
)

const userAgent = "captionsync/0.1.0"

// Service is the notification surface used by the batch worker.
type Service interface {
	NotifyRated(ctx context.Context, input string, out rating.Output) error
	NotifyJobFailed(ctx context.Context, input string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		failuresOnly: cfg.Notifications.FailuresOnly,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	failuresOnly bool
}

func (n *ntfyService) NotifyRated(ctx context.Context, input string, out rating.Output) error {
	if out.Passed && n.failuresOnly {
		return nil
	}
	summary := fmt.Sprintf("%s: sync %.1f (%s), quality %.2f", displayName(input), out.Rating, out.Label, out.CaptionQuality.Overall.Score)
	if out.Passed {
		return n.send(ctx, payload{
			title:   "captionsync - Passed",
			message: "✅ " + summary,
			tags:    []string{"captionsync", "rating", "passed"},
		})
	}
	return n.send(ctx, payload{
		title:    "captionsync - Failed",
		message:  "⚠️ " + summary,
		tags:     []string{"captionsync", "rating", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, input string, err error) error {
	var b strings.Builder
	b.WriteString("❌ Error rating ")
	b.WriteString(displayName(input))
	b.WriteString(": ")
	if err != nil {
		b.WriteString(strings.TrimSpace(err.Error()))
	} else {
		b.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "captionsync - Error",
		message:  b.String(),
		tags:     []string{"captionsync", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "captionsync - Test",
		message:  "🧪 Notification test",
		tags:     []string{"captionsync", "test"},
		priority: "low",
	})
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

func displayName(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return "unknown input"
	}
	return filepath.Base(input)
}

type noopService struct{}

func (noopService) NotifyRated(context.Context, string, rating.Output) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, error) error     { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
