package discovery

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoCandidate indicates that none of the candidate paths exist.
var ErrNoCandidate = errors.New("no candidate path exists")

// First returns the first candidate that exists as a regular file, trying them
// in the order given. Relative candidates are resolved against root. Only
// os.Stat is used, so no candidate is ever opened.
func First(root string, candidates []string) (string, error) {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		full := resolve(root, candidate)
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}
		return full, nil
	}
	return "", ErrNoCandidate
}

// Exists reports whether path (resolved against root) exists.
func Exists(root, path string) bool {
	_, err := os.Stat(resolve(root, path))
	return err == nil
}

// Missing returns the artifacts from paths that do not exist, in input order.
func Missing(root string, paths []string) []string {
	var missing []string
	for _, p := range paths {
		if !Exists(root, p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// Glob expands pattern relative to root and returns sorted matches, relative
// to root when possible.
func Glob(root, pattern string) ([]string, error) {
	found, err := filepath.Glob(resolve(root, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	paths := make([]string, 0, len(found))
	for _, m := range found {
		paths = append(paths, mustRelOrClean(root, m))
	}
	sort.Strings(paths)
	return paths, nil
}

// MissingTools returns the executables that cannot be resolved. Names with a
// path separator are checked relative to root, the rest via PATH.
func MissingTools(root string, tools []string) []string {
	seen := make(map[string]struct{})
	var missing []string
	for _, tool := range tools {
		if tool == "" {
			continue
		}
		if _, ok := seen[tool]; ok {
			continue
		}
		seen[tool] = struct{}{}
		if strings.ContainsRune(tool, filepath.Separator) || strings.ContainsRune(tool, '/') {
			if !Exists(root, tool) {
				missing = append(missing, tool)
			}
			continue
		}
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	return missing
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
