package ui

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unicode"

	"github.com/mattn/go-shellwords"
)

var errUnclosedQuote = errors.New("unclosed quote")

// SplitPaths breaks pasted text into paths. Terminals paste dragged files
// shell-quoted, so POSIX hosts follow shell word rules. On Windows a
// backslash is a path separator and only double quotes group words.
func SplitPaths(s string) ([]string, error) {
	return splitPaths(s, runtime.GOOS == "windows")
}

func splitPaths(s string, windows bool) ([]string, error) {
	if windows {
		return splitWindowsPaths(s)
	}
	words, err := shellwords.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse paths: %w", err)
	}
	if len(words) == 0 {
		return nil, nil
	}
	return words, nil
}

func splitWindowsPaths(s string) ([]string, error) {
	var (
		out    []string
		cur    strings.Builder
		quoted bool
		has    bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			has = true
		case !quoted && unicode.IsSpace(r):
			if has {
				out = append(out, cur.String())
			}
			cur.Reset()
			has = false
		default:
			cur.WriteRune(r)
			has = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("parse paths: %w", errUnclosedQuote)
	}
	if has {
		out = append(out, cur.String())
	}
	return out, nil
}
