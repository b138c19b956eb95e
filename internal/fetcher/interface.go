package fetcher

import (
	"context"
	"io"
)

// Process is a running downloader whose stdout and stderr are merged into
// a single stream.
type Process interface {
	// Output returns the merged output stream. It reaches EOF once the
	// process has closed both stdout and stderr.
	Output() io.Reader

	// Wait blocks until the process exits and returns its exit code.
	// The error is non-nil only when the exit status could not be determined.
	Wait() (int, error)
}

// Launcher starts downloader processes.
type Launcher interface {
	// Launch starts name with args. An error means the process never started.
	Launch(ctx context.Context, name string, args []string) (Process, error)
}
