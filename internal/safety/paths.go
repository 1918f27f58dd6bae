// Package safety resolves where chat state files may live on disk.
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	CodeOutsideDataRoot = "ERR_PATH_OUTSIDE_DATA_ROOT"
	CodeEmptyPath       = "ERR_EMPTY_PATH"
	CodeNotAFile        = "ERR_NOT_A_FILE"
)

// PathError is a machine-readable error for rejected state file locations.
type PathError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string.
func (e PathError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// InitDataRoot resolves dir to an absolute directory for chat state.
// An empty dir means the current working directory.
func InitDataRoot(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = cwd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs(data root): %w", err)
	}

	// If EvalSymlinks fails (e.g., not created yet), keep the absolute path as-is.
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return abs, nil
}

// ResolveStatePath returns the absolute location of a state file.
// Absolute names are taken as given. Relative names are joined to absRoot
// and must not resolve outside it, including through a symlinked parent.
func ResolveStatePath(absRoot, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", PathError{Code: CodeEmptyPath, Message: "state file name is empty"}
	}

	var candidate string
	if filepath.IsAbs(name) {
		candidate = filepath.Clean(name)
	} else {
		candidate = filepath.Join(absRoot, filepath.Clean(name))

		// The leaf usually doesn't exist yet; resolve the parent instead.
		parent := filepath.Dir(candidate)
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			candidate = filepath.Join(resolved, filepath.Base(candidate))
		}

		rel, err := filepath.Rel(absRoot, candidate)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
			return "", PathError{Code: CodeOutsideDataRoot, Message: fmt.Sprintf("%q resolves outside the data root", name)}
		}
	}

	if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
		return "", PathError{Code: CodeNotAFile, Message: fmt.Sprintf("%q is a directory", name)}
	}
	return candidate, nil
}
