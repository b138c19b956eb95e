package service

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/timmy/mediafetch/internal/domain"
	"github.com/timmy/mediafetch/internal/logger"
	"github.com/timmy/mediafetch/internal/storage"
)

// Files the downloader leaves behind while still working.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// Archiver uploads the files of successful downloads to object storage.
type Archiver struct {
	storage storage.ObjectStorage
	prefix  string
}

// NewArchiver creates a finish hook uploading to objectStorage under keyPrefix.
func NewArchiver(objectStorage storage.ObjectStorage, keyPrefix string) *Archiver {
	return &Archiver{storage: objectStorage, prefix: keyPrefix}
}

// Name implements FinishHook.
func (a *Archiver) Name() string {
	return "archive"
}

// OnFinish uploads every completed file whose name carries the job's output
// prefix. Failed jobs and keys already present in the bucket are skipped.
func (a *Archiver) OnFinish(ctx context.Context, job *domain.FinishedDownload) error {
	if job.State.Status != domain.DownloadStatusCompleted {
		return nil
	}

	files, err := jobFiles(job.OutputDir, job.OutputPrefix)
	if err != nil {
		return err
	}

	for _, name := range files {
		key := a.Key(name)
		exists, err := a.storage.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", key, err)
		}
		if exists {
			logger.CtxDebug(ctx, "Skipping archived file: key=%s", key)
			continue
		}
		if err := a.upload(ctx, filepath.Join(job.OutputDir, name), key); err != nil {
			return fmt.Errorf("failed to archive %s: %w", name, err)
		}
		logger.CtxInfo(ctx, "Archived download file: key=%s, url=%s", key, a.storage.GetURL(key))
	}
	return nil
}

// Key returns the object key for an archived file name.
func (a *Archiver) Key(name string) string {
	return path.Join(a.prefix, name)
}

func (a *Archiver) upload(ctx context.Context, filePath, key string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return a.storage.Upload(ctx, key, f, info.Size(), contentType)
}

// jobFiles lists finished files in dir whose names start with prefix.
func jobFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix+"_") || isPartial(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func isPartial(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
