package tsclass

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// ScanStats tracks file discovery statistics
type ScanStats struct {
	FilesDiscovered int // Total files found by glob patterns
	FilesScanned    int // Files kept after filtering
	FilesSkipped    int // Files skipped as generated, ignored or unsupported
}

// ScanOptions configures ExpandFiles.
type ScanOptions struct {
	// Root is the directory patterns are relative to and where .gitignore
	// is read from. Defaults to the working directory.
	Root string
	// NoGitIgnore disables .gitignore filtering.
	NoGitIgnore bool
}

// DefaultPatterns are scanned when no pattern is configured.
var DefaultPatterns = []string{"**/*.{ts,tsx,mts,cts,vue}"}

// isDeclarationFile checks if a file is a generated TypeScript declaration
func isDeclarationFile(path string) bool {
	return strings.HasSuffix(path, ".d.ts") ||
		strings.HasSuffix(path, ".d.mts") ||
		strings.HasSuffix(path, ".d.cts")
}

// inNodeModules reports whether any path segment is node_modules
func inNodeModules(path string) bool {
	return slices.Contains(strings.Split(filepath.ToSlash(path), "/"), "node_modules")
}

// loadGitIgnore compiles root/.gitignore
// Gracefully degrades if .gitignore doesn't exist
func loadGitIgnore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// shouldSkipFile determines if a file should be excluded from extraction
//
// Three-layer filtering:
// 1. Kind check: only scripts and components are extracted
// 2. Pattern check (fast): skip declaration files and node_modules
// 3. Gitignore check: skip gitignored files (only for relative paths)
func shouldSkipFile(path string, gi *ignore.GitIgnore) bool {
	if KindOf(path) == KindUnsupported {
		return true
	}
	if isDeclarationFile(path) || inNodeModules(path) {
		return true
	}

	// Absolute paths (like /tmp/...) are not affected by project gitignore
	if gi != nil && !filepath.IsAbs(path) && gi.MatchesPath(filepath.ToSlash(path)) {
		return true
	}
	return false
}

// ExpandFiles expands glob patterns to the files to extract, sorted and
// deduplicated, and tracks statistics.
func ExpandFiles(patterns []string, opts ScanOptions) ([]string, ScanStats, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	var gi *ignore.GitIgnore
	if !opts.NoGitIgnore {
		gi = loadGitIgnore(root)
	}

	var allFiles []string
	seen := make(map[string]bool)
	stats := ScanStats{}

	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(pattern) {
			full = filepath.Join(root, pattern)
		}
		matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
		if err != nil {
			return nil, stats, err
		}

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true
			stats.FilesDiscovered++

			rel := match
			if r, err := filepath.Rel(root, match); err == nil && !strings.HasPrefix(r, "..") {
				rel = r
			}
			if shouldSkipFile(rel, gi) {
				stats.FilesSkipped++
				continue
			}
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				stats.FilesSkipped++
				continue
			}
			allFiles = append(allFiles, match)
			stats.FilesScanned++
		}
	}

	slices.Sort(allFiles)
	return allFiles, stats, nil
}
