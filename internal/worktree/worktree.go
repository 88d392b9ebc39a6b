// Package worktree creates and removes git worktrees for sub-sessions
// under a configured managed root. Removal never touches paths outside
// that root.
package worktree

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideRoot is returned before any destructive operation when the
// target path does not live under the managed root.
var ErrOutsideRoot = errors.New("worktree: path outside managed root")

// ErrExists is returned when the destination path already exists.
var ErrExists = errors.New("worktree: destination already exists")

// removeAttempts bounds the retry loop for a busy worktree.
const removeAttempts = 5

// removeBaseDelay is the first backoff step; it doubles per attempt.
const removeBaseDelay = 100 * time.Millisecond

// Manager owns the worktrees of one project.
type Manager struct {
	projectDir string
	root       string

	// Overridable for tests.
	git   func(dir string, args ...string) (string, error)
	sleep func(time.Duration)
}

// NewManager returns a Manager rooted at root for the project at
// projectDir.
func NewManager(projectDir, root string) *Manager {
	return &Manager{
		projectDir: projectDir,
		root:       root,
		git:        runGit,
		sleep:      time.Sleep,
	}
}

// Add creates a worktree named name on a fresh branch from HEAD and
// returns its path. The destination must not already exist.
func (m *Manager) Add(name, branch string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("worktree: name is required")
	}
	if branch == "" {
		branch = "holdfast/" + name
	}
	path := filepath.Join(m.root, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return "", fmt.Errorf("worktree: create root: %w", err)
	}
	if out, err := m.git(m.projectDir, "worktree", "add", "-b", branch, path, "HEAD"); err != nil {
		return "", fmt.Errorf("worktree: add %s: %w: %s", name, err, out)
	}
	return path, nil
}

// Remove deletes a worktree. The path is validated against the managed
// root first; a busy worktree is retried with exponential backoff, and
// after the retries run out the directory is force-deleted and stale
// worktree metadata pruned. Failure of even the manual cleanup is
// reported as a warning, not an error.
func (m *Manager) Remove(path string) error {
	if err := m.checkRoot(path); err != nil {
		return err
	}

	var lastErr error
	delay := removeBaseDelay
	for attempt := 0; attempt < removeAttempts; attempt++ {
		out, err := m.git(m.projectDir, "worktree", "remove", "--force", path)
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("worktree: remove %s (attempt %d): %w: %s", path, attempt+1, err, out)
		m.sleep(delay)
		delay *= 2
	}
	log.Printf("worktree: remove retries exhausted, forcing deletion: %v", lastErr)

	if err := os.RemoveAll(path); err != nil {
		log.Printf("worktree: warning: manual cleanup of %s failed: %v", path, err)
		return nil
	}
	if out, err := m.git(m.projectDir, "worktree", "prune"); err != nil {
		log.Printf("worktree: warning: prune after manual cleanup: %v: %s", err, out)
	}
	return nil
}

// List returns the paths of managed worktrees from porcelain output.
func (m *Manager) List() ([]string, error) {
	out, err := m.git(m.projectDir, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("worktree: list: %w", err)
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if p, ok := strings.CutPrefix(line, "worktree "); ok {
			if m.checkRoot(p) == nil {
				paths = append(paths, p)
			}
		}
	}
	return paths, nil
}

// checkRoot rejects any path that escapes the managed root.
func (m *Manager) checkRoot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("worktree: resolve %s: %w", path, err)
	}
	root, err := filepath.Abs(m.root)
	if err != nil {
		return fmt.Errorf("worktree: resolve root: %w", err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return nil
}

func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return strings.TrimSpace(out.String()), err
}
