package gitctx

import (
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"vendor/lib.go", []string{"vendor/**"}, true},
		{"vendor/pkg/deep/lib.go", []string{"vendor/**"}, true},
		{"main.go", []string{"vendor/**"}, false},
		{"foo.gen.go", []string{"**/*.gen.go"}, true},
		{"pkg/foo.gen.go", []string{"**/*.gen.go"}, true},
		{"dist/bundle.js", []string{"**/dist/**"}, true},
		{"config/.env", []string{"**/.env"}, true},
		{"app/secrets.py", []string{"**/*secrets*"}, true},
		{"main.go", []string{"*.go"}, true},
	}
	for _, tt := range tests {
		got := MatchesAny(tt.path, tt.patterns)
		if got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestMatchesAny_EmptyPatterns(t *testing.T) {
	if MatchesAny("main.go", nil) {
		t.Error("MatchesAny with nil patterns should return false")
	}
	if MatchesAny("main.go", []string{}) {
		t.Error("MatchesAny with empty patterns should return false")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(dir, "src", "app.py"), "print(1)\n")
	writeFile(t, filepath.Join(dir, "src", "app.min.js"), "var a=1;\n")
	writeFile(t, filepath.Join(dir, "node_modules", "dep", "index.js"), "module.exports = {}\n")
	writeFile(t, filepath.Join(dir, "vendor", "lib.go"), "package lib\n")

	files, err := CollectFiles([]string{dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "main.go"),
		filepath.Join(dir, "src", "app.py"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("CollectFiles = %v, want %v", files, want)
	}
}

func TestCollectFiles_ExplicitFileAndExclude(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	writeFile(t, notes, "not code\n")
	writeFile(t, filepath.Join(dir, "a.go"), "package a\n")
	writeFile(t, filepath.Join(dir, "a_test.go"), "package a\n")

	files, err := CollectFiles([]string{notes, dir, notes}, []string{"**/*_test.go"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.go"), notes}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("CollectFiles = %v, want %v", files, want)
	}
}

func TestCollectFiles_Missing(t *testing.T) {
	_, err := CollectFiles([]string{filepath.Join(t.TempDir(), "nope")}, nil)
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}

// setupTestRepo creates a temp git repo with some tracked files and returns
// the path along with a helper that runs commands inside it.
func setupTestRepo(t *testing.T) (string, func(args ...string)) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
	}

	run("git", "init")
	run("git", "symbolic-ref", "HEAD", "refs/heads/main")

	writeFile(t, filepath.Join(dir, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(dir, "util.go"), "package main\n\nfunc helper() {}\n")

	run("git", "add", "-A")
	run("git", "commit", "-m", "init")

	return dir, run
}

func TestOpen_NotRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error outside a repository")
	}
}

func TestRepo_GitDir(t *testing.T) {
	dir, _ := setupTestRepo(t)
	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	gitDir, err := repo.GitDir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(gitDir) != ".git" {
		t.Errorf("GitDir = %q, want a .git directory", gitDir)
	}
}

func TestRepo_StagedFiles(t *testing.T) {
	dir, run := setupTestRepo(t)

	writeFile(t, filepath.Join(dir, "util.go"), "package main\n\nfunc helper() { eval() }\n")
	writeFile(t, filepath.Join(dir, "new.py"), "import os\n")
	writeFile(t, filepath.Join(dir, "NOTES.md"), "notes\n")
	writeFile(t, filepath.Join(dir, "vendor", "lib.go"), "package lib\n")
	writeFile(t, filepath.Join(dir, "unstaged.go"), "package main\n")
	run("git", "add", "util.go", "new.py", "NOTES.md", "vendor/lib.go")
	run("git", "rm", "-q", "main.go")

	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	files, err := repo.StagedFiles([]string{"vendor/**"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"new.py", "util.go"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("StagedFiles = %v, want %v", files, want)
	}
}

func TestRepo_StagedContent(t *testing.T) {
	dir, run := setupTestRepo(t)

	writeFile(t, filepath.Join(dir, "util.go"), "package main\n\n// staged\n")
	run("git", "add", "util.go")
	writeFile(t, filepath.Join(dir, "util.go"), "package main\n\n// working tree\n")

	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	content, err := repo.StagedContent("util.go")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, "// staged") {
		t.Errorf("StagedContent returned working tree version: %q", content)
	}

	if _, err := repo.StagedContent("missing.go"); err == nil {
		t.Error("expected error for path not in index")
	}
}
