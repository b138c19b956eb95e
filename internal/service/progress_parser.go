package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/timmy/mediafetch/internal/domain"
)

// Markers recognised in downloader output.
const (
	DownloadMarker        = "[download]"
	AlreadyDownloadedHint = "has already been downloaded"
	DestinationHint       = "Destination:"
)

var (
	decimalPercentPattern = regexp.MustCompile(`(\d+\.\d+)%`)
	integerPercentPattern = regexp.MustCompile(`(\d+)%`)
	speedPattern          = regexp.MustCompile(`\bat\s+(\S+)`)
	etaPattern            = regexp.MustCompile(`\bETA\s+(\S+)`)
	sizePattern           = regexp.MustCompile(`\bof\s+~?\s*(\S+)`)
)

// ParseProgress turns one line of downloader output into a progress fragment.
// It never fails: lines it does not understand yield a processing fragment
// that only carries the raw message.
func ParseProgress(line string) domain.ProgressFragment {
	frag := domain.ProgressFragment{
		Status:  domain.DownloadStatusProcessing,
		Message: line,
	}

	switch {
	case strings.Contains(line, DownloadMarker):
		frag.Percent = parsePercent(line)
		frag.Speed = firstGroup(speedPattern, line)
		frag.ETA = firstGroup(etaPattern, line)
		frag.Size = firstGroup(sizePattern, line)
	case strings.Contains(line, AlreadyDownloadedHint) || strings.Contains(line, DestinationHint):
		full := 100.0
		frag.Status = domain.DownloadStatusCompleted
		frag.Percent = &full
	}

	return frag
}

// parsePercent prefers a decimal percentage and falls back to an integer one
// ("100%" is printed without decimals once a file finishes).
func parsePercent(line string) *float64 {
	raw := firstGroup(decimalPercentPattern, line)
	if raw == "" {
		raw = firstGroup(integerPercentPattern, line)
	}
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
