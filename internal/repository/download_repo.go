package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/mediafetch/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRecordNotFound is returned when a history entry does not exist.
var ErrRecordNotFound = errors.New("download record not found")

// DownloadRepository stores the history of finished downloads.
type DownloadRepository struct {
	db *gorm.DB
}

// NewDownloadRepository creates a new DownloadRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *DownloadRepository: repository instance bound to db.
func NewDownloadRepository(db *gorm.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Save inserts a history record, replacing an existing record with the same ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - record: history record to persist.
// Returns:
//   - error: non-nil if the write fails.
func (r *DownloadRepository) Save(ctx context.Context, record *domain.DownloadRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(record).Error
}

// GetByID retrieves a history record by download ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: download ID.
// Returns:
//   - *domain.DownloadRecord: record if found.
//   - error: ErrRecordNotFound if absent, other non-nil errors on failure.
func (r *DownloadRepository) GetByID(ctx context.Context, id string) (*domain.DownloadRecord, error) {
	var record domain.DownloadRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get download record: %w", err)
	}
	return &record, nil
}

// List returns history records, newest first, with the total record count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - status: optional status filter; empty means all.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.DownloadRecord: page of records.
//   - int64: total matching records.
//   - error: non-nil if the query fails.
func (r *DownloadRepository) List(ctx context.Context, status domain.DownloadStatus, limit, offset int) ([]domain.DownloadRecord, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.DownloadRecord{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count download records: %w", err)
	}

	var records []domain.DownloadRecord
	if err := scoped().Order("finished_at DESC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list download records: %w", err)
	}
	return records, total, nil
}
