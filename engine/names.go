package engine

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	unsafeChars  = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	multiUnders  = regexp.MustCompile(`_{2,}`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

const maxStagedNameLen = 50

// SanitizeName makes a caller-supplied filename safe for the staging
// directory: whitespace and unsafe characters become underscores, runs of
// underscores collapse, and the result is truncated to 50 characters.
func SanitizeName(name string) string {
	name = filepath.Base(name)
	name = whitespaceRe.ReplaceAllString(name, "_")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = multiUnders.ReplaceAllString(name, "_")
	if len(name) > maxStagedNameLen {
		name = name[:maxStagedNameLen]
	}
	return name
}

// InputExt returns the extension of name, defaulting to ".mp4" when absent so
// the engine can always pick a demuxer.
func InputExt(name string) string {
	if ext := filepath.Ext(name); ext != "" {
		return ext
	}
	return ".mp4"
}

// TrimExt strips the extension from name.
func TrimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
