// Package snapshot captures, diffs and restores worktree state through
// a shadow git repository: a private GIT_DIR under the data root with
// the real project as GIT_WORK_TREE. The user's own .git is never
// touched, and no branch or ref of theirs ever moves.
//
// Read-style operations (Diff, PatchSet) degrade to empty results on
// subprocess failure; Restore and Revert are best effort and log
// instead of failing. Track is the only operation that mints
// checkpoint hashes, and it reports errors because callers need the
// hash.
package snapshot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/holdfast-dev/holdfast/internal/locker"
)

// DefaultGCInterval bounds how often the shadow repository is pruned.
const DefaultGCInterval = 24 * time.Hour

// gcStamp is the file under the shadow GIT_DIR whose mtime records the
// last prune pass.
const gcStamp = "gc.stamp"

// Patch names the files that differ between a checkpoint and the
// current worktree.
type Patch struct {
	Hash  string   `json:"hash"`
	Files []string `json:"files"`
}

// FileDiff is the per-file before/after content and line counts
// between two checkpoints. Binary files carry zero counts and empty
// content.
type FileDiff struct {
	File      string `json:"file"`
	Before    string `json:"before"`
	After     string `json:"after"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Config describes one project's snapshot store.
type Config struct {
	// DataDir is the global data root; the shadow repository lives at
	// DataDir/snapshot/ProjectID.
	DataDir    string
	ProjectID  string
	ProjectDir string
	// Disabled turns every operation into a no-op.
	Disabled   bool
	GCInterval time.Duration
}

// Store is the checkpoint engine for one project. Construct with New
// and share one instance; all operations serialize through the lock
// keyed by the shadow GIT_DIR path.
type Store struct {
	projectID  string
	projectDir string
	gitDir     string
	disabled   bool
	gcInterval time.Duration
	locks      *locker.Locker
}

// New builds a Store. The shadow repository itself is initialized
// lazily on the first Track.
func New(cfg Config, locks *locker.Locker) *Store {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	if locks == nil {
		locks = locker.New()
	}
	return &Store{
		projectID:  cfg.ProjectID,
		projectDir: cfg.ProjectDir,
		gitDir:     filepath.Join(cfg.DataDir, "snapshot", cfg.ProjectID),
		disabled:   cfg.Disabled,
		gcInterval: interval,
		locks:      locks,
	}
}

// Tracked reports whether the project directory is under version
// control. Snapshotting is a no-op outside a repository.
func (s *Store) Tracked() bool {
	out, err := projectGit(s.projectDir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Track stages the current worktree into the shadow repository and
// returns the resulting tree hash. Returns "" with no error when the
// project is not under version control or snapshotting is disabled.
func (s *Store) Track() (string, error) {
	if s.disabled || !s.Tracked() {
		return "", nil
	}
	var hash string
	err := s.locks.Do(s.gitDir, func() error {
		if err := s.init(); err != nil {
			return err
		}
		if err := s.stage(); err != nil {
			return err
		}
		out, err := s.gitOut("write-tree")
		if err != nil {
			return fmt.Errorf("snapshot: write tree: %w", err)
		}
		// Pin the tree with a ref. Bare write-tree output is otherwise
		// unreachable and the next repack would reclaim it, taking every
		// older checkpoint's restore path with it.
		if _, err := s.gitOut("update-ref", snapshotRef(out), out); err != nil {
			return fmt.Errorf("snapshot: pin checkpoint %s: %w", out, err)
		}
		hash = out
		s.maybeGC()
		return nil
	})
	return hash, err
}

// PatchSet returns the files differing between hash and the current
// worktree, ignoring whitespace-only changes, scoped to the project
// root. The file list is empty (never an error) when the diff fails.
func (s *Store) PatchSet(hash string) Patch {
	patch := Patch{Hash: hash, Files: []string{}}
	_ = s.locks.Do(s.gitDir, func() error {
		if err := s.stage(); err != nil {
			log.Printf("snapshot: patch %s: stage: %v", hash, err)
			return nil
		}
		out, err := s.gitOut("diff", "--name-only", "-w", hash, "--", ".")
		if err != nil {
			log.Printf("snapshot: patch %s: diff: %v", hash, err)
			return nil
		}
		if out != "" {
			patch.Files = strings.Split(out, "\n")
		}
		return nil
	})
	return patch
}

// Diff returns the full unified diff between hash and the current
// state, ignoring whitespace. Returns "" on failure, logged.
func (s *Store) Diff(hash string) string {
	var diff string
	_ = s.locks.Do(s.gitDir, func() error {
		if err := s.stage(); err != nil {
			log.Printf("snapshot: diff %s: stage: %v", hash, err)
			return nil
		}
		out, err := s.gitOut("diff", "-w", hash, "--", ".")
		if err != nil {
			log.Printf("snapshot: diff %s: %v", hash, err)
			return nil
		}
		diff = out
		return nil
	})
	return diff
}

// Restore replaces the worktree's tracked content with the tree at
// hash: the tree is read into the shadow index, then force-checked-out
// from it. Best effort: failures are logged with full output and the
// caller must verify resulting state if correctness is critical.
func (s *Store) Restore(hash string) {
	_ = s.locks.Do(s.gitDir, func() error {
		if _, err := s.gitOut("read-tree", hash); err != nil {
			log.Printf("snapshot: restore %s: read-tree: %v", hash, err)
			return nil
		}
		if _, err := s.gitOut("checkout-index", "-a", "-f"); err != nil {
			log.Printf("snapshot: restore %s: checkout-index: %v", hash, err)
		}
		return nil
	})
}

// Revert restores each file named by the patches from its originating
// checkpoint, oldest first; the first patch naming a file wins. When a
// checkout fails, the file is kept if the path exists in that
// checkpoint's tree and deleted if it does not; a path absent from
// the tree means the file did not exist at that point in history.
func (s *Store) Revert(patches []Patch) {
	_ = s.locks.Do(s.gitDir, func() error {
		seen := make(map[string]bool)
		for _, patch := range patches {
			for _, file := range patch.Files {
				if seen[file] {
					continue
				}
				seen[file] = true
				if _, err := s.gitOut("checkout", patch.Hash, "--", file); err == nil {
					continue
				}
				if _, err := s.gitOut("cat-file", "-e", patch.Hash+":"+file); err == nil {
					// Present in the checkpoint but checkout failed;
					// leave the current file alone.
					log.Printf("snapshot: revert %s from %s: checkout failed, keeping current file", file, patch.Hash)
					continue
				}
				if err := os.Remove(filepath.Join(s.projectDir, file)); err != nil && !os.IsNotExist(err) {
					log.Printf("snapshot: revert %s: remove: %v", file, err)
				}
			}
		}
		return nil
	})
}

// DiffFull returns per-file content and line counts between two
// checkpoints. Binary files are skipped: zero counts, empty content.
func (s *Store) DiffFull(from, to string) ([]FileDiff, error) {
	var diffs []FileDiff
	err := s.locks.Do(s.gitDir, func() error {
		out, err := s.gitOut("diff", "--numstat", from, to, "--", ".")
		if err != nil {
			return fmt.Errorf("snapshot: diff %s..%s: %w", from, to, err)
		}
		for _, line := range strings.Split(out, "\n") {
			if line == "" {
				continue
			}
			fields := strings.SplitN(line, "\t", 3)
			if len(fields) != 3 {
				continue
			}
			fd := FileDiff{File: fields[2]}
			if fields[0] != "-" && fields[1] != "-" {
				fd.Additions, _ = strconv.Atoi(fields[0])
				fd.Deletions, _ = strconv.Atoi(fields[1])
				fd.Before = s.contentAt(from, fd.File)
				fd.After = s.contentAt(to, fd.File)
			}
			diffs = append(diffs, fd)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return diffs, nil
}

// contentAt reads one file's content at a checkpoint; missing paths
// yield "".
func (s *Store) contentAt(hash, file string) string {
	out, err := s.gitOut("show", hash+":"+file)
	if err != nil {
		return ""
	}
	return out
}

// init lazily creates the shadow repository, with line-ending
// translation disabled so tree hashes stay deterministic across
// platforms.
func (s *Store) init() error {
	if _, err := os.Stat(filepath.Join(s.gitDir, "HEAD")); err == nil {
		return nil
	}
	if err := os.MkdirAll(s.gitDir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create shadow dir: %w", err)
	}
	if _, err := s.gitOut("init"); err != nil {
		return fmt.Errorf("snapshot: init shadow repo: %w", err)
	}
	if _, err := s.gitOut("config", "core.autocrlf", "false"); err != nil {
		return fmt.Errorf("snapshot: configure shadow repo: %w", err)
	}
	return nil
}

// stage adds every changed, untracked and deleted path to the shadow
// index. Paths are fed null-delimited in bulk; if status enumeration
// fails, fall back to adding everything.
func (s *Store) stage() error {
	out, err := s.gitOut("status", "--porcelain", "-z")
	if err != nil {
		log.Printf("snapshot: status enumeration failed, staging everything: %v", err)
		if _, err := s.gitOut("add", "-A", "--", "."); err != nil {
			return fmt.Errorf("snapshot: stage all: %w", err)
		}
		return nil
	}
	paths := parseStatusPaths(out)
	if len(paths) == 0 {
		return nil
	}
	stdin := strings.Join(paths, "\x00") + "\x00"
	if _, err := s.gitIn(stdin, "add", "-A", "--pathspec-from-file=-", "--pathspec-file-nul"); err != nil {
		return fmt.Errorf("snapshot: stage %d paths: %w", len(paths), err)
	}
	return nil
}

// GC repacks the shadow repository if the interval has elapsed. Track
// invokes this opportunistically; the server daemon calls it on a
// schedule.
func (s *Store) GC() {
	if s.disabled || !s.Tracked() {
		return
	}
	_ = s.locks.Do(s.gitDir, func() error {
		s.maybeGC()
		return nil
	})
}

// maybeGC repacks the shadow repository at most once per interval,
// tracked by a stamp file. Every checkpoint tree is pinned by a ref,
// so gc only consolidates storage and reclaims loose objects from
// aborted operations; it can never drop a checkpoint. GC failure is
// logged, never fatal.
func (s *Store) maybeGC() {
	stamp := filepath.Join(s.gitDir, gcStamp)
	if info, err := os.Stat(stamp); err == nil {
		if time.Since(info.ModTime()) < s.gcInterval {
			return
		}
	}
	if _, err := s.gitOut("gc", "--quiet"); err != nil {
		log.Printf("snapshot: gc %s: %v", s.projectID, err)
		return
	}
	if err := os.WriteFile(stamp, []byte(time.Now().UTC().Format(time.RFC3339)), 0o644); err != nil {
		log.Printf("snapshot: gc stamp: %v", err)
	}
}

// snapshotRef is the ref that keeps one checkpoint tree reachable.
func snapshotRef(hash string) string {
	return "refs/snapshots/" + hash
}
