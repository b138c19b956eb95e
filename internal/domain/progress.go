package domain

// DownloadStatus represents the lifecycle status of a download job.
// Values include DownloadStatusStarting, DownloadStatusProcessing, DownloadStatusCompleted,
// DownloadStatusError, and the synthetic DownloadStatusNotFound.
type DownloadStatus string

const (
	DownloadStatusStarting   DownloadStatus = "starting"
	DownloadStatusProcessing DownloadStatus = "processing"
	DownloadStatusCompleted  DownloadStatus = "completed"
	DownloadStatusError      DownloadStatus = "error"

	// DownloadStatusNotFound is reported to observers of unknown or expired jobs.
	// It is never stored.
	DownloadStatusNotFound DownloadStatus = "not_found"
)

// IsTerminal reports whether no further progress can follow this status.
func (s DownloadStatus) IsTerminal() bool {
	return s == DownloadStatusCompleted || s == DownloadStatusError
}

// Rank orders statuses along starting -> processing -> terminal.
// Unknown values rank lowest.
func (s DownloadStatus) Rank() int {
	switch s {
	case DownloadStatusStarting:
		return 1
	case DownloadStatusProcessing:
		return 2
	case DownloadStatusCompleted, DownloadStatusError:
		return 3
	default:
		return 0
	}
}

// ProgressState is the current progress of a single download job.
type ProgressState struct {
	Status  DownloadStatus `json:"status"`
	Percent float64        `json:"percent"`
	Speed   string         `json:"speed"`
	ETA     string         `json:"eta"`
	Size    string         `json:"size"`
	Message string         `json:"message"`
}

// NotFoundState returns the synthetic state sent for unknown job IDs.
func NotFoundState() ProgressState {
	return ProgressState{Status: DownloadStatusNotFound}
}

// ProgressFragment is a partial progress update parsed from one output line.
// Status and Message are always set. The remaining fields are only meaningful
// when captured: a nil Percent or an empty string means "not present".
type ProgressFragment struct {
	Status  DownloadStatus
	Percent *float64
	Speed   string
	ETA     string
	Size    string
	Message string
}

// DownloadType selects what the downloader extracts.
type DownloadType string

const (
	DownloadTypeAudio DownloadType = "audio"
	DownloadTypeVideo DownloadType = "video"
)

// DownloadOptions holds per-job downloader options.
type DownloadOptions struct {
	Type     DownloadType `json:"download_type"`
	Playlist bool         `json:"playlist"`
}
