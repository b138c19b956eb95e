package service

import (
	"context"
	"fmt"

	"github.com/timmy/mediafetch/internal/domain"
)

// HistoryStore persists finished download records.
type HistoryStore interface {
	Save(ctx context.Context, record *domain.DownloadRecord) error
	GetByID(ctx context.Context, id string) (*domain.DownloadRecord, error)
	List(ctx context.Context, status domain.DownloadStatus, limit, offset int) ([]domain.DownloadRecord, int64, error)
}

// HistoryRecorder writes a history record for every finished download.
type HistoryRecorder struct {
	store HistoryStore
}

// NewHistoryRecorder creates a finish hook backed by store.
func NewHistoryRecorder(store HistoryStore) *HistoryRecorder {
	return &HistoryRecorder{store: store}
}

// Name implements FinishHook.
func (h *HistoryRecorder) Name() string {
	return "history"
}

// OnFinish implements FinishHook.
func (h *HistoryRecorder) OnFinish(ctx context.Context, job *domain.FinishedDownload) error {
	if err := h.store.Save(ctx, job.Record()); err != nil {
		return fmt.Errorf("failed to save download history: %w", err)
	}
	return nil
}
