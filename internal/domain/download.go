package domain

import "time"

// DownloadRecord is the history entry written once a download job finishes.
// Live progress never reads from this table.
type DownloadRecord struct {
	ID           string         `gorm:"type:text;primaryKey" json:"id"`
	URL          string         `gorm:"type:text;not null" json:"url"`
	DownloadType DownloadType   `gorm:"type:text" json:"download_type"`
	Playlist     bool           `json:"playlist"`
	Status       DownloadStatus `gorm:"type:text;index:idx_download_history_status" json:"status"`
	Percent      float64        `json:"percent"`
	Message      string         `gorm:"type:text" json:"message"`
	LogLines     int            `gorm:"default:0" json:"log_lines"`
	OutputPrefix string         `gorm:"type:text" json:"output_prefix"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `gorm:"index:idx_download_history_finished" json:"finished_at"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName returns the database table name for DownloadRecord.
func (DownloadRecord) TableName() string {
	return "download_history"
}

// DownloadFile describes a file found in the output directory.
type DownloadFile struct {
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Modified float64 `json:"modified"`
}

// FinishedDownload is handed to finish hooks after a job reaches a terminal state.
type FinishedDownload struct {
	ID           string
	URL          string
	Options      DownloadOptions
	State        ProgressState
	LogLines     int
	OutputDir    string
	OutputPrefix string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Record converts a finished download to its history entry.
func (f *FinishedDownload) Record() *DownloadRecord {
	return &DownloadRecord{
		ID:           f.ID,
		URL:          f.URL,
		DownloadType: f.Options.Type,
		Playlist:     f.Options.Playlist,
		Status:       f.State.Status,
		Percent:      f.State.Percent,
		Message:      f.State.Message,
		LogLines:     f.LogLines,
		OutputPrefix: f.OutputPrefix,
		StartedAt:    f.StartedAt,
		FinishedAt:   f.FinishedAt,
	}
}
