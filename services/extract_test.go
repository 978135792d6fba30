package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText_PlainTextPassesThrough(t *testing.T) {
	got := ExtractText([]byte("  hello world\n"), "notes.txt")
	assert.Equal(t, "hello world", got)

	got = ExtractText([]byte("# heading"), "README.md")
	assert.Equal(t, "# heading", got)
}

func TestExtractText_BinaryFallsBackToPrintableRuns(t *testing.T) {
	data := []byte{0x00, 0x01, 'h', 'e', 'l', 'l', 'o', 0x02, 'x', 'y', 0x03, 'w', 'o', 'r', 'l', 'd', '!'}
	got := ExtractText(data, "report.pdf")
	assert.Equal(t, "hello world!", got, "short runs are dropped, long runs kept")
}

func TestExtractText_InvalidUTF8TextFileUsesFallback(t *testing.T) {
	data := append([]byte("valid part "), 0xff, 0xfe)
	got := ExtractText(data, "data.txt")
	assert.Equal(t, "valid part", got)
}
