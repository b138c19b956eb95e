package service

import (
	"fmt"
	"os"
	"sort"

	"github.com/timmy/mediafetch/internal/domain"
)

// ListFiles returns the regular files in dir sorted by name. A missing
// directory yields an empty list.
func ListFiles(dir string) ([]domain.DownloadFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.DownloadFile{}, nil
		}
		return nil, fmt.Errorf("failed to read download directory: %w", err)
	}

	files := make([]domain.DownloadFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		files = append(files, domain.DownloadFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: float64(info.ModTime().UnixNano()) / 1e9,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
