package format

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{-5, "0 B"},
		{1, "1 B"},
		{10, "10 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1126, "1.1 KB"},
		{1048576, "1 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{1024 * 1024 * 1024 * 1024, "1 TB"},
		{3 * 1024 * 1024 * 1024 * 1024 * 1024, "3072 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}

func TestFormatBytes_MonotonicWithinTier(t *testing.T) {
	prev := 0.0
	for n := int64(1024); n < 1024*1024; n += 997 {
		var v float64
		var unit string
		_, err := fmt.Sscan(FormatBytes(n), &v, &unit)
		if !assert.NoError(t, err) {
			return
		}
		if unit != "KB" {
			continue
		}
		assert.GreaterOrEqual(t, v, prev, "n=%d", n)
		prev = v
	}
}

func TestResolveBaseURL(t *testing.T) {
	assert.Equal(t, "http://10.0.0.5:5000", ResolveBaseURL("  http://10.0.0.5:5000/ ", "http://localhost:5000"))
	assert.Equal(t, "http://localhost:5000", ResolveBaseURL("", "http://localhost:5000/"))
	assert.Equal(t, "http://localhost:5000", ResolveBaseURL("   ", "http://localhost:5000"))
	assert.Equal(t, "https://share.example", ResolveBaseURL("https://share.example///", ""))
}

func TestFileLabel(t *testing.T) {
	assert.Equal(t, "a.txt — 10 B", FileLabel("a.txt", 10))
	assert.Equal(t, "movie.mkv — 1.5 KB", FileLabel("movie.mkv", 1536))
}

func TestFileIcon(t *testing.T) {
	assert.Equal(t, "🖼", FileIcon("IMG_0001.JPG"))
	assert.Equal(t, "🗜", FileIcon("backup.tar"))
	assert.Equal(t, "📝", FileIcon("notes.md"))
	assert.Equal(t, "💻", FileIcon("main.go"))
	assert.Equal(t, "📄", FileIcon("Makefile"))
}
