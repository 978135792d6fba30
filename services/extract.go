package services

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ExtractText pulls readable text out of an uploaded file. Plain-text
// formats pass through; anything else is filtered down to its printable
// runs so at least partial content is indexable.
func ExtractText(data []byte, filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".csv", ".json", ".log":
		if utf8.Valid(data) {
			return strings.TrimSpace(string(data))
		}
	}
	return strings.TrimSpace(printableRuns(data))
}

// printableRuns keeps runs of printable ASCII of length >= 4, separated by
// single spaces. Same heuristic as the strings(1) tool.
func printableRuns(data []byte) string {
	var b strings.Builder
	var run []byte

	flush := func() {
		if len(run) >= 4 {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.Write(run)
		}
		run = run[:0]
	}

	for _, c := range data {
		if c >= 0x20 && c < 0x7f {
			run = append(run, c)
		} else {
			flush()
		}
	}
	flush()

	return b.String()
}
