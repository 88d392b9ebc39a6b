package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// gitOut runs git with the shadow repository as GIT_DIR and the
// project root as GIT_WORK_TREE, returning trimmed stdout. Failures
// carry the exit code and stderr so callers can log full diagnostics.
func (s *Store) gitOut(args ...string) (string, error) {
	return s.gitIn("", args...)
}

// gitIn is gitOut with data fed to the subprocess on stdin.
func (s *Store) gitIn(stdin string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = s.projectDir
	cmd.Env = append(os.Environ(),
		"GIT_DIR="+s.gitDir,
		"GIT_WORK_TREE="+s.projectDir,
	)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(errb.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

// projectGit runs git against the project's own repository, without
// the shadow environment. Used only for read-only probes.
func projectGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(errb.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

// statusPaths enumerates changed, untracked and deleted paths from
// null-delimited porcelain status output.
func parseStatusPaths(out string) []string {
	tokens := strings.Split(out, "\x00")
	var paths []string
	for i := 0; i < len(tokens); i++ {
		entry := tokens[i]
		if len(entry) < 4 {
			continue
		}
		paths = append(paths, entry[3:])
		// Renames and copies carry the origin path as the next token;
		// staging it records the deletion side.
		if entry[0] == 'R' || entry[0] == 'C' {
			i++
			if i < len(tokens) && tokens[i] != "" {
				paths = append(paths, tokens[i])
			}
		}
	}
	return paths
}
