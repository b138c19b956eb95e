package fetcher

import (
	"path/filepath"
	"time"

	"github.com/timmy/mediafetch/internal/domain"
)

// DefaultBinary is the downloader launched when none is configured.
const DefaultBinary = "yt-dlp"

// Downloader flags.
const (
	audioFormat     = "mp3"
	videoFormat     = "bestvideo+bestaudio"
	mergeFormat     = "mp4"
	outputNameTmpl  = "%(title)s.%(ext)s"
	prefixTimestamp = "20060102_150405"
	prefixIDLength  = 8
)

// OutputPrefix returns the file name prefix for a job started at now.
// The job ID fragment keeps concurrent jobs started in the same second apart.
func OutputPrefix(now time.Time, id string) string {
	short := id
	if len(short) > prefixIDLength {
		short = short[:prefixIDLength]
	}
	return now.Format(prefixTimestamp) + "_" + short
}

// OutputTemplate returns the downloader output template for a prefix.
func OutputTemplate(dir, prefix string) string {
	return filepath.Join(dir, prefix+"_"+outputNameTmpl)
}

// BuildArgs builds the downloader argument list for one job.
func BuildArgs(url string, opts domain.DownloadOptions, outputTemplate string, extra []string) []string {
	var args []string

	if opts.Type == domain.DownloadTypeAudio {
		args = append(args, "-x", "--audio-format", audioFormat)
	} else {
		args = append(args, "-f", videoFormat, "--merge-output-format", mergeFormat)
	}

	if !opts.Playlist {
		args = append(args, "--no-playlist")
	}

	// One progress line per update instead of carriage-return redraws.
	args = append(args, "--newline", "--progress")
	args = append(args, extra...)
	args = append(args, "-o", outputTemplate, url)
	return args
}
