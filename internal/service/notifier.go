package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/mediafetch/internal/domain"
)

// WebhookEvent is the JSON body posted when a download finishes.
type WebhookEvent struct {
	DownloadID   string               `json:"download_id"`
	URL          string               `json:"url"`
	DownloadType domain.DownloadType  `json:"download_type"`
	Playlist     bool                 `json:"playlist"`
	State        domain.ProgressState `json:"state"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
}

// WebhookNotifier posts finished downloads to a configured URL.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier creates a finish hook posting to url.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "mediafetch-webhook/1.0")

	return &WebhookNotifier{client: client, url: url}
}

// Name implements FinishHook.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// OnFinish implements FinishHook. The webhook is tried once.
func (n *WebhookNotifier) OnFinish(ctx context.Context, job *domain.FinishedDownload) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(&WebhookEvent{
			DownloadID:   job.ID,
			URL:          job.URL,
			DownloadType: job.Options.Type,
			Playlist:     job.Options.Playlist,
			State:        job.State,
			StartedAt:    job.StartedAt,
			FinishedAt:   job.FinishedAt,
		}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
