// Package gitdiff extracts changed files and line numbers from git, feeding
// the impact analysis with the set of lines that moved since a base ref.
package gitdiff

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

type ChangedFile struct {
	Path         string
	ChangedLines []int
}

// ChangedFiles runs git diff against baseRef in dir and returns the changed
// files with their post-change line numbers.
func ChangedFiles(dir, baseRef string) ([]ChangedFile, error) {
	cmd := exec.Command("git", "diff", "-U0", baseRef)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}
	return ParseDiff(output)
}

// Hunk header: @@ -oldStart,oldLen +newStart,newLen @@
// Only the + side matters here.
var hunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ParseDiff parses unified diff output (as produced by git diff -U0) into
// per-file changed line sets.
func ParseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	var changes []ChangedFile
	var current *ChangedFile

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				// "a/path b/path"; the b/ path is the new version.
				path := strings.TrimPrefix(parts[3], "b/")
				if current != nil {
					changes = append(changes, *current)
				}
				current = &ChangedFile{Path: path, ChangedLines: []int{}}
			}
			continue
		}

		if current == nil || !strings.HasPrefix(line, "@@") {
			continue
		}

		matches := hunkHeader.FindStringSubmatch(line)
		if len(matches) < 2 {
			continue
		}
		start, _ := strconv.Atoi(matches[1])
		count := 1 // length omitted means a single line
		if matches[2] != "" {
			count, _ = strconv.Atoi(matches[2])
		}
		// count 0 is a pure deletion: no lines exist at this position in
		// the new file.
		for i := 0; i < count; i++ {
			current.ChangedLines = append(current.ChangedLines, start+i)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if current != nil {
		changes = append(changes, *current)
	}
	return changes, nil
}
