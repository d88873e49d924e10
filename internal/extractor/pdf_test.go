package extractor

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextQuality(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		min   float64
		max   float64
	}{
		{"empty", nil, 0, 0},
		{"statement text", []string{"03/14 STARBUCKS NY $4.50\nTotals Year-to-Date"}, 1, 1},
		{"identity font garbage", []string{"ÄÖÜßÆØÅæøå\x01\x02"}, 0, 0},
		{"mixed", []string{"ab\x01\x02"}, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textQuality(tt.pages)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestIsReadableText(t *testing.T) {
	assert.False(t, isReadableText(nil))
	assert.False(t, isReadableText([]string{"", "   "}))
	assert.False(t, isReadableText([]string{strings.Repeat("\x01", 40)}))
	assert.True(t, isReadableText([]string{"", "Card Ending 1-23456\n01/05/26 AMAZON $45.67"}))
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := ExtractText("/nonexistent/statement-12345.pdf")
	assert.Error(t, err)
}

func TestExtractBytes_RemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)

	_, err := ExtractBytes([]byte("this is not a pdf"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
