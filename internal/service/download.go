package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/timmy/mediafetch/internal/domain"
	"github.com/timmy/mediafetch/internal/logger"
	"github.com/timmy/mediafetch/internal/repository"
)

var (
	// ErrInvalidRequest is returned for download requests that fail validation.
	ErrInvalidRequest = errors.New("invalid download request")

	// ErrDownloadNotFound is returned for unknown or expired download IDs.
	ErrDownloadNotFound = errors.New("download not found")
)

// Default page size for history listings.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
)

// DownloadRequest is the payload accepted by Submit.
type DownloadRequest struct {
	URL          string `json:"url"`
	DownloadType string `json:"download_type"`
	Playlist     bool   `json:"playlist"`
}

// DownloadService is the entry point for creating and inspecting download jobs.
type DownloadService struct {
	store     *JobStore
	runner    *Runner
	publisher *Publisher
	history   HistoryStore
	outputDir string
	newID     func() string
}

// DownloadServiceConfig holds configuration for the download service.
type DownloadServiceConfig struct {
	OutputDir string
}

// NewDownloadService creates a new download service. history may be nil
// when no history database is configured.
func NewDownloadService(
	store *JobStore,
	runner *Runner,
	publisher *Publisher,
	history HistoryStore,
	cfg *DownloadServiceConfig,
) *DownloadService {
	return &DownloadService{
		store:     store,
		runner:    runner,
		publisher: publisher,
		history:   history,
		outputDir: cfg.OutputDir,
		newID:     func() string { return uuid.New().String() },
	}
}

// Submit validates req, starts a job for it and returns the job ID without
// waiting for the download.
func (s *DownloadService) Submit(ctx context.Context, req *DownloadRequest) (string, error) {
	opts, url, err := validateRequest(req)
	if err != nil {
		return "", err
	}

	id := s.newID()
	s.runner.Start(id, url, opts)

	logger.CtxInfo(logger.SetDownloadID(ctx, id), "Download submitted: url=%s, type=%s, playlist=%v",
		url, opts.Type, opts.Playlist)
	return id, nil
}

func validateRequest(req *DownloadRequest) (domain.DownloadOptions, string, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return domain.DownloadOptions{}, "", fmt.Errorf("%w: URL is required", ErrInvalidRequest)
	}
	// A leading dash would be taken as a downloader flag.
	if strings.HasPrefix(url, "-") {
		return domain.DownloadOptions{}, "", fmt.Errorf("%w: URL must not start with '-'", ErrInvalidRequest)
	}

	opts := domain.DownloadOptions{Type: domain.DownloadTypeVideo, Playlist: req.Playlist}
	switch domain.DownloadType(req.DownloadType) {
	case "", domain.DownloadTypeVideo:
	case domain.DownloadTypeAudio:
		opts.Type = domain.DownloadTypeAudio
	default:
		return domain.DownloadOptions{}, "", fmt.Errorf("%w: unsupported download_type %q", ErrInvalidRequest, req.DownloadType)
	}

	return opts, url, nil
}

// Progress streams progress snapshots for id until a terminal or not_found
// state, or until ctx is cancelled.
func (s *DownloadService) Progress(ctx context.Context, id string) <-chan domain.ProgressState {
	return s.publisher.Stream(ctx, id)
}

// State returns the current state of a job.
func (s *DownloadService) State(id string) (domain.ProgressState, error) {
	state, ok := s.store.Get(id)
	if !ok {
		return domain.ProgressState{}, ErrDownloadNotFound
	}
	return state, nil
}

// Logs returns the raw output lines recorded for a job.
func (s *DownloadService) Logs(id string) ([]string, error) {
	lines, ok := s.store.GetLog(id)
	if !ok {
		return nil, ErrDownloadNotFound
	}
	return lines, nil
}

// Files lists the files in the output directory.
func (s *DownloadService) Files() ([]domain.DownloadFile, error) {
	return ListFiles(s.outputDir)
}

// History returns finished downloads, newest first. Without a history
// database it returns an empty page.
func (s *DownloadService) History(ctx context.Context, status domain.DownloadStatus, limit, offset int) ([]domain.DownloadRecord, int64, error) {
	if s.history == nil {
		return []domain.DownloadRecord{}, 0, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.history.List(ctx, status, limit, offset)
}

// HistoryRecord returns the history entry of one finished download.
func (s *DownloadService) HistoryRecord(ctx context.Context, id string) (*domain.DownloadRecord, error) {
	if s.history == nil {
		return nil, ErrDownloadNotFound
	}
	record, err := s.history.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrDownloadNotFound
		}
		return nil, err
	}
	return record, nil
}

// ActiveJobs returns the number of jobs that have not finished yet.
func (s *DownloadService) ActiveJobs() int {
	return s.store.CountActive()
}
