package gitctx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/vulnscout/internal/pattern"
)

// MaxFileBytes is the per-file size limit for local scans.
const MaxFileBytes = 1 << 20

// skipDirs are never descended into by CollectFiles.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
}

// Repo is a git working tree.
type Repo struct {
	Root string
}

// Open returns the repository containing dir.
func Open(dir string) (Repo, error) {
	out, err := gitOutput(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return Repo{}, fmt.Errorf("not a git repository: %w", err)
	}
	return Repo{Root: strings.TrimSpace(out)}, nil
}

// GitDir returns the absolute path of the repository's .git directory.
func (r Repo) GitDir() (string, error) {
	out, err := gitOutput(r.Root, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// StagedFiles lists added, copied, modified and renamed files in the index
// that the scanner understands, sorted.
func (r Repo) StagedFiles(exclude []string) ([]string, error) {
	out, err := gitOutput(r.Root, "diff", "--cached", "--name-only", "--diff-filter=ACMR")
	if err != nil {
		return nil, fmt.Errorf("git diff --cached: %w", err)
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !pattern.IsSourceFile(line) || MatchesAny(line, exclude) {
			continue
		}
		files = append(files, line)
	}
	sort.Strings(files)
	return files, nil
}

// StagedContent returns the index version of path, which may differ from
// the working tree.
func (r Repo) StagedContent(path string) (string, error) {
	out, err := gitOutput(r.Root, "show", ":"+filepath.ToSlash(path))
	if err != nil {
		return "", fmt.Errorf("git show :%s: %w", path, err)
	}
	return out, nil
}

// CollectFiles expands paths into the files to scan. Files named explicitly
// are always kept; directories are walked for recognized source files.
// Matches of exclude are dropped either way.
func CollectFiles(paths []string, exclude []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if seen[p] || MatchesAny(filepath.ToSlash(p), exclude) {
			return
		}
		seen[p] = true
		files = append(files, p)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !pattern.IsSourceFile(path) {
				return nil
			}
			if info, err := d.Info(); err == nil && info.Size() > MaxFileBytes {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, glob := range patterns {
		matched, err := filepath.Match(glob, path)
		if err == nil && matched {
			return true
		}
		if prefix, ok := strings.CutSuffix(glob, "/**"); ok && !strings.Contains(prefix, "*") {
			if strings.HasPrefix(path, prefix+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(glob, "**/")
		if clean != glob {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
