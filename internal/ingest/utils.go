package ingest

import (
	"path/filepath"
	"strings"
)

// DefaultExts are the text dump extensions picked up by default
// (lowercase, without '.').
var DefaultExts = map[string]struct{}{
	"txt":  {},
	"text": {},
}

// ParseExts builds an extension set from a list like ".txt, TEXT".
func ParseExts(list []string) map[string]struct{} {
	exts := map[string]struct{}{}
	for _, e := range list {
		e = NormalizeExt(e)
		if e != "" {
			exts[e] = struct{}{}
		}
	}
	if len(exts) == 0 {
		return DefaultExts
	}
	return exts
}

// NormalizeExt lowercases ext and strips the leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Allowed checks if the extension of path is in exts.
func Allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[NormalizeExt(filepath.Ext(path))]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
