package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"captionsync/internal/config"
	"captionsync/internal/notifications"
	"captionsync/internal/rating"
)

type captured struct {
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, got *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		got.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func configFor(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.RequestTimeoutSeconds = 5
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(configFor(""))
	if err := svc.NotifyJobFailed(context.Background(), "/videos/a.mp4", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	passed := rating.Output{Rating: 91.24, Label: rating.LabelExcellent, Passed: true}
	passed.CaptionQuality.Overall.Score = 0.84
	failed := rating.Output{Rating: 42, Label: rating.LabelPoor}
	failed.CaptionQuality.Overall.Score = 0.5

	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "passed rating",
			send: func(s notifications.Service) error {
				return s.NotifyRated(context.Background(), "/videos/clip.mp4", passed)
			},
			expectTitle:   "captionsync - Passed",
			expectMessage: "✅ clip.mp4: sync 91.2 (excellent), quality 0.84",
			expectTags:    "captionsync,rating,passed",
		},
		{
			name: "failed rating",
			send: func(s notifications.Service) error {
				return s.NotifyRated(context.Background(), "/videos/clip.mp4", failed)
			},
			expectTitle:    "captionsync - Failed",
			expectMessage:  "⚠️ clip.mp4: sync 42.0 (poor), quality 0.50",
			expectTags:     "captionsync,rating,failed",
			expectPriority: "high",
		},
		{
			name: "job error",
			send: func(s notifications.Service) error {
				return s.NotifyJobFailed(context.Background(), "/videos/clip.mp4", errors.New("ffmpeg exited 1"))
			},
			expectTitle:    "captionsync - Error",
			expectMessage:  "❌ Error rating clip.mp4: ffmpeg exited 1",
			expectTags:     "captionsync,error,alert",
			expectPriority: "high",
		},
		{
			name: "test",
			send: func(s notifications.Service) error {
				return s.TestNotification(context.Background())
			},
			expectTitle:    "captionsync - Test",
			expectMessage:  "🧪 Notification test",
			expectTags:     "captionsync,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			server := newServer(t, &got)
			if err := tc.send(notifications.NewService(configFor(server.URL))); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestFailuresOnlySuppressesPassedRatings(t *testing.T) {
	var got captured
	server := newServer(t, &got)
	cfg := configFor(server.URL)
	cfg.Notifications.FailuresOnly = true
	svc := notifications.NewService(cfg)

	if err := svc.NotifyRated(context.Background(), "a.mp4", rating.Output{Passed: true}); err != nil {
		t.Fatalf("NotifyRated: %v", err)
	}
	if got.calls != 0 {
		t.Fatalf("passed rating should be suppressed, got %d calls", got.calls)
	}
	if err := svc.NotifyRated(context.Background(), "a.mp4", rating.Output{}); err != nil {
		t.Fatalf("NotifyRated: %v", err)
	}
	if got.calls != 1 {
		t.Fatalf("failed rating should be sent, got %d calls", got.calls)
	}
}

func TestNtfyErrorStatusIsReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic reserved", http.StatusForbidden)
	}))
	defer server.Close()

	err := notifications.NewService(configFor(server.URL)).TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}
