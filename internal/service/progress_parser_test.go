package service

import (
	"testing"

	"github.com/timmy/mediafetch/internal/domain"
)

func floatPtr(v float64) *float64 {
	return &v
}

// TestParseProgress verifies field extraction for the line shapes the downloader prints
func TestParseProgress(t *testing.T) {
	testCases := []struct {
		name    string
		line    string
		status  domain.DownloadStatus
		percent *float64
		speed   string
		eta     string
		size    string
	}{
		{
			name:    "full progress line",
			line:    "[download]  45.2% of 10.00MiB at 1.20MiB/s ETA 00:07",
			status:  domain.DownloadStatusProcessing,
			percent: floatPtr(45.2),
			speed:   "1.20MiB/s",
			eta:     "00:07",
			size:    "10.00MiB",
		},
		{
			name:    "estimated size",
			line:    "[download]   3.0% of ~ 120.50MiB at 2.00MiB/s ETA 01:00",
			status:  domain.DownloadStatusProcessing,
			percent: floatPtr(3.0),
			speed:   "2.00MiB/s",
			eta:     "01:00",
			size:    "120.50MiB",
		},
		{
			name:    "estimated size without space",
			line:    "[download]  12.5% of ~80.00MiB at 900.00KiB/s ETA 00:30",
			status:  domain.DownloadStatusProcessing,
			percent: floatPtr(12.5),
			speed:   "900.00KiB/s",
			eta:     "00:30",
			size:    "80.00MiB",
		},
		{
			name:    "percent only",
			line:    "[download]  50.0%",
			status:  domain.DownloadStatusProcessing,
			percent: floatPtr(50.0),
		},
		{
			name:    "integer percent on finish",
			line:    "[download] 100% of 10.00MiB in 00:03",
			status:  domain.DownloadStatusProcessing,
			percent: floatPtr(100),
			size:    "10.00MiB",
		},
		{
			name:   "marker without fields",
			line:   "[download] Downloading playlist: favourites",
			status: domain.DownloadStatusProcessing,
		},
		{
			name:    "unknown speed and eta",
			line:    "[download]  10.0% of 5.00MiB at Unknown B/s ETA Unknown",
			status:  domain.DownloadStatusProcessing,
			percent: floatPtr(10.0),
			speed:   "Unknown",
			eta:     "Unknown",
			size:    "5.00MiB",
		},
		{
			name:    "already downloaded",
			line:    "clip.mp4 has already been downloaded",
			status:  domain.DownloadStatusCompleted,
			percent: floatPtr(100),
		},
		{
			name:    "merger destination",
			line:    `[Merger] Merging formats into "Destination: clip.mp4"`,
			status:  domain.DownloadStatusCompleted,
			percent: floatPtr(100),
		},
		{
			name:   "unrelated line",
			line:   "[youtube] abc123: Downloading webpage",
			status: domain.DownloadStatusProcessing,
		},
		{
			name:   "empty line",
			line:   "",
			status: domain.DownloadStatusProcessing,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frag := ParseProgress(tc.line)

			if frag.Status != tc.status {
				t.Errorf("status: got %q, want %q", frag.Status, tc.status)
			}
			if frag.Message != tc.line {
				t.Errorf("message: got %q, want %q", frag.Message, tc.line)
			}
			switch {
			case tc.percent == nil && frag.Percent != nil:
				t.Errorf("percent: got %v, want absent", *frag.Percent)
			case tc.percent != nil && frag.Percent == nil:
				t.Errorf("percent: got absent, want %v", *tc.percent)
			case tc.percent != nil && *frag.Percent != *tc.percent:
				t.Errorf("percent: got %v, want %v", *frag.Percent, *tc.percent)
			}
			if frag.Speed != tc.speed {
				t.Errorf("speed: got %q, want %q", frag.Speed, tc.speed)
			}
			if frag.ETA != tc.eta {
				t.Errorf("eta: got %q, want %q", frag.ETA, tc.eta)
			}
			if frag.Size != tc.size {
				t.Errorf("size: got %q, want %q", frag.Size, tc.size)
			}
		})
	}
}

// TestParseProgressPure verifies that parsing the same line twice yields equal fragments
func TestParseProgressPure(t *testing.T) {
	line := "[download]  45.2% of 10.00MiB at 1.20MiB/s ETA 00:07"

	first := ParseProgress(line)
	second := ParseProgress(line)

	if first.Status != second.Status || first.Message != second.Message ||
		first.Speed != second.Speed || first.ETA != second.ETA || first.Size != second.Size {
		t.Errorf("fragments differ: %+v vs %+v", first, second)
	}
	if *first.Percent != *second.Percent {
		t.Errorf("percent differs: %v vs %v", *first.Percent, *second.Percent)
	}
}
