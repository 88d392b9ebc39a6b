package snapshot

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/holdfast-dev/holdfast/internal/locker"
)

// newTestStore creates a real git project in a temp dir and a snapshot
// store with its shadow repository under a second temp dir.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	projectDir := t.TempDir()
	cmd := exec.Command("git", "init")
	cmd.Dir = projectDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init: %v: %s", err, out)
	}

	s := New(Config{
		DataDir:    t.TempDir(),
		ProjectID:  "proj1",
		ProjectDir: projectDir,
	}, locker.New())
	return s, projectDir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestTrack_OutsideRepoIsNoop(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	s := New(Config{
		DataDir:    t.TempDir(),
		ProjectID:  "proj1",
		ProjectDir: t.TempDir(), // no git init
	}, locker.New())

	hash, err := s.Track()
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if hash != "" {
		t.Errorf("hash = %q, want empty outside a repository", hash)
	}
}

func TestTrack_Disabled(t *testing.T) {
	s, _ := newTestStore(t)
	s.disabled = true
	hash, err := s.Track()
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if hash != "" {
		t.Errorf("hash = %q, want empty when disabled", hash)
	}
}

func TestTrack_RestoreRoundTrip(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "a.txt", "old\n")

	hash, err := s.Track()
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if hash == "" {
		t.Fatal("Track returned empty hash inside a repository")
	}

	writeFile(t, dir, "a.txt", "newer\n")
	s.Restore(hash)

	if got := readFile(t, dir, "a.txt"); got != "old\n" {
		t.Errorf("a.txt after restore = %q, want %q", got, "old\n")
	}
}

func TestTrack_Idempotent(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "a.txt", "content\n")

	h1, err := s.Track()
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	h2, err := s.Track()
	if err != nil {
		t.Fatalf("Track (again): %v", err)
	}
	if h1 != h2 {
		t.Errorf("re-tracking an unchanged worktree: %s != %s", h1, h2)
	}
}

func TestPatchSet(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "a.txt", "old\n")

	hash, err := s.Track()
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	patch := s.PatchSet(hash)
	if len(patch.Files) != 0 {
		t.Errorf("unmodified worktree patch files = %v, want none", patch.Files)
	}

	writeFile(t, dir, "a.txt", "newer\n")
	patch = s.PatchSet(hash)
	if len(patch.Files) != 1 || patch.Files[0] != "a.txt" {
		t.Errorf("patch files = %v, want [a.txt]", patch.Files)
	}
	if patch.Hash != hash {
		t.Errorf("patch hash = %q, want %q", patch.Hash, hash)
	}
}

func TestDiff_UnifiedHunks(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "a.txt", "old\n")

	hash, err := s.Track()
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	writeFile(t, dir, "a.txt", "newer\n")

	diff := s.Diff(hash)
	if !strings.Contains(diff, "-old") || !strings.Contains(diff, "+newer") {
		t.Errorf("diff missing expected hunks:\n%s", diff)
	}
}

func TestDiff_BadHashDegradesToEmpty(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "a.txt", "x\n")
	if _, err := s.Track(); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if diff := s.Diff("0000000000000000000000000000000000000000"); diff != "" {
		t.Errorf("diff for bogus hash = %q, want empty", diff)
	}
}

func TestRevert_FirstPatchWinsAndIdempotent(t *testing.T) {
	s, dir := newTestStore(t)

	writeFile(t, dir, "a.txt", "v1\n")
	h1, err := s.Track()
	if err != nil {
		t.Fatalf("Track h1: %v", err)
	}
	writeFile(t, dir, "a.txt", "v2\n")
	h2, err := s.Track()
	if err != nil {
		t.Fatalf("Track h2: %v", err)
	}
	writeFile(t, dir, "a.txt", "v3\n")

	patches := []Patch{
		{Hash: h1, Files: []string{"a.txt"}},
		{Hash: h2, Files: []string{"a.txt"}},
	}
	s.Revert(patches)
	if got := readFile(t, dir, "a.txt"); got != "v1\n" {
		t.Errorf("a.txt after revert = %q, want oldest patch version %q", got, "v1\n")
	}

	s.Revert(patches)
	if got := readFile(t, dir, "a.txt"); got != "v1\n" {
		t.Errorf("a.txt after second revert = %q, want %q", got, "v1\n")
	}
}

func TestRevert_DeletesFileAbsentFromCheckpoint(t *testing.T) {
	s, dir := newTestStore(t)

	writeFile(t, dir, "a.txt", "v1\n")
	h1, err := s.Track()
	if err != nil {
		t.Fatalf("Track h1: %v", err)
	}

	// b.txt did not exist at h1; reverting it to h1 means deleting it.
	writeFile(t, dir, "b.txt", "late\n")
	if _, err := s.Track(); err != nil {
		t.Fatalf("Track h2: %v", err)
	}

	s.Revert([]Patch{{Hash: h1, Files: []string{"b.txt"}}})
	if _, err := os.Stat(filepath.Join(dir, "b.txt")); !os.IsNotExist(err) {
		t.Error("b.txt still exists after reverting past its creation")
	}
}

func TestTrack_CheckpointsSurviveAggressivePrune(t *testing.T) {
	s, dir := newTestStore(t)

	writeFile(t, dir, "a.txt", "v1\n")
	h1, err := s.Track()
	if err != nil {
		t.Fatalf("Track h1: %v", err)
	}
	writeFile(t, dir, "a.txt", "v2\n")
	if _, err := s.Track(); err != nil {
		t.Fatalf("Track h2: %v", err)
	}

	// Harshest possible repack: zero grace period. Pinned refs must
	// keep every checkpoint tree alive through it.
	if _, err := s.gitOut("gc", "--quiet", "--prune=now"); err != nil {
		t.Fatalf("gc: %v", err)
	}

	if typ, err := s.gitOut("cat-file", "-t", h1); err != nil || typ != "tree" {
		t.Fatalf("checkpoint %s after gc: type=%q err=%v, want tree", h1, typ, err)
	}

	writeFile(t, dir, "a.txt", "v3\n")
	s.Revert([]Patch{{Hash: h1, Files: []string{"a.txt"}}})
	if got := readFile(t, dir, "a.txt"); got != "v1\n" {
		t.Errorf("a.txt after revert past gc = %q, want %q", got, "v1\n")
	}

	s.Restore(h1)
	if got := readFile(t, dir, "a.txt"); got != "v1\n" {
		t.Errorf("a.txt after restore past gc = %q, want %q", got, "v1\n")
	}
}

func TestGC_RepacksAndWritesStamp(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "a.txt", "content\n")
	hash, err := s.Track()
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	stamp := filepath.Join(s.gitDir, gcStamp)
	if _, err := os.Stat(stamp); err != nil {
		t.Fatalf("stamp after first Track: %v", err)
	}
	if err := os.Remove(stamp); err != nil {
		t.Fatalf("remove stamp: %v", err)
	}

	s.GC()
	if _, err := os.Stat(stamp); err != nil {
		t.Errorf("stamp after GC: %v", err)
	}
	if typ, err := s.gitOut("cat-file", "-t", hash); err != nil || typ != "tree" {
		t.Errorf("checkpoint %s after GC: type=%q err=%v, want tree", hash, typ, err)
	}
}

func TestGC_DisabledIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	s.disabled = true
	s.GC()
	if _, err := os.Stat(filepath.Join(s.gitDir, gcStamp)); !os.IsNotExist(err) {
		t.Errorf("stamp stat = %v, want not-exist on a disabled store", err)
	}
}

func TestDiffFull(t *testing.T) {
	s, dir := newTestStore(t)

	writeFile(t, dir, "a.txt", "one\ntwo\n")
	h1, err := s.Track()
	if err != nil {
		t.Fatalf("Track h1: %v", err)
	}
	writeFile(t, dir, "a.txt", "one\nthree\nfour\n")
	h2, err := s.Track()
	if err != nil {
		t.Fatalf("Track h2: %v", err)
	}

	diffs, err := s.DiffFull(h1, h2)
	if err != nil {
		t.Fatalf("DiffFull: %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("diffs = %d, want 1", len(diffs))
	}
	fd := diffs[0]
	if fd.File != "a.txt" {
		t.Errorf("file = %q, want a.txt", fd.File)
	}
	if fd.Additions != 2 || fd.Deletions != 1 {
		t.Errorf("counts = +%d/-%d, want +2/-1", fd.Additions, fd.Deletions)
	}
	if !strings.Contains(fd.Before, "two") || !strings.Contains(fd.After, "three") {
		t.Errorf("content mismatch: before=%q after=%q", fd.Before, fd.After)
	}
}
