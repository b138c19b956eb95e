package fetcher

import "bytes"

// MaxLineLength bounds a single output line.
const MaxLineLength = 1024 * 1024

// ScanLines is a bufio.SplitFunc that ends a line at '\n' or '\r', so
// progress redraws are seen as separate lines even without --newline.
// Empty lines are returned as empty tokens.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		// Treat "\r\n" as one terminator.
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
