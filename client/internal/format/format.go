// Package format holds the presentation helpers shared by the sender and
// receiver pages, so both render sizes and names the same way.
package format

import (
	"path/filepath"
	"strconv"
	"strings"
)

var units = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n on a base-1024 ladder with at most two decimals.
// Zero and negative counts render as "0 B".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + " " + units[i]
}

// ResolveBaseURL returns the trimmed override without trailing slashes, or
// origin when the override is blank.
func ResolveBaseURL(override, origin string) string {
	if u := strings.TrimRight(strings.TrimSpace(override), "/"); u != "" {
		return u
	}
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}

// FileLabel is the row text used by file lists: the name followed by its formatted size.
func FileLabel(name string, size int64) string {
	return name + " — " + FormatBytes(size)
}

var iconsByExt = map[string]string{}

func init() {
	groups := map[string][]string{
		"🖼": {".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp", ".heic"},
		"🎞": {".mp4", ".mkv", ".mov", ".avi", ".webm"},
		"🎵": {".mp3", ".wav", ".flac", ".ogg", ".m4a", ".aac"},
		"🗜": {".zip", ".tar", ".gz", ".tgz", ".7z", ".rar", ".bz2", ".xz"},
		"📝": {".pdf", ".doc", ".docx", ".txt", ".md", ".rtf", ".odt", ".xls", ".xlsx", ".csv", ".ppt", ".pptx"},
		"💻": {".go", ".py", ".js", ".ts", ".html", ".css", ".json", ".yaml", ".yml", ".sh", ".c", ".h", ".rs", ".java"},
	}
	for icon, exts := range groups {
		for _, ext := range exts {
			iconsByExt[ext] = icon
		}
	}
}

// FileIcon picks a glyph from the file extension.
func FileIcon(name string) string {
	if icon, ok := iconsByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return icon
	}
	return "📄"
}
