package metadata

import (
	"os"
	"path/filepath"
	"strings"
)

// basePath strips the final extension from a source path, so that
// "capture.tbc" resolves sidecars named "capture.*" as well as
// "capture.tbc.*".
func basePath(sourcePath string) string {
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ResolveStore returns the structured-store path for a source. When no
// store exists, found is false and the returned path is the first
// candidate, which is where a JSON migration writes its output.
func ResolveStore(sourcePath string) (dbPath string, found bool) {
	candidates := []string{
		basePath(sourcePath) + ".db",
		sourcePath + ".db",
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c, true
		}
	}
	return candidates[0], false
}

// ResolveJSON returns the JSON sidecar path for a source, trying the
// canonical patterns in order.
func ResolveJSON(sourcePath string) (jsonPath string, found bool) {
	base := basePath(sourcePath)
	candidates := []string{
		base + ".json",
		sourcePath + ".json",
		base + ".tbc.json",
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c, true
		}
	}
	return "", false
}
