// Package patch extracts the set of changed source file paths from patch
// files in unified diff or mbox form. The paths feed the database's
// selection engine: they decide which test suites and cases a change-set is
// responsible for exercising.
package patch

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrUnrecognizedPatch means no source file could be extracted from a
	// patch at all.
	ErrUnrecognizedPatch = errors.New("unrecognized patch format")
	// ErrUnrecognizedPath means a ---/+++ diff header carried a file path
	// in a shape we cannot interpret.
	ErrUnrecognizedPath = errors.New("unrecognized diff header path")
)

// headerRe matches the constructs that name changed files: a bare "---"
// separator (restarts file collection, as mbox text before it is not part of
// the diff), a ---/+++ header pair, or a rename from/to pair.
var headerRe = regexp.MustCompile(
	`(?m)^---$|` +
		`^--- (\S+)(\s.*)?$\n` +
		`^\+\+\+ (\S+)(\s.*)?$|` +
		`^rename from (\S+)$\n` +
		`^rename to (\S+)$`)

// srcFilePath extracts the source file path from a ---/+++ diff header path,
// stripping the top directory (the a/ or b/ prefix). It returns "" for
// /dev/null, meaning the file does not exist on that side of the change.
func srcFilePath(headerPath string) (string, error) {
	if headerPath == "/dev/null" {
		return "", nil
	}
	slash := strings.Index(headerPath, "/")
	if slash <= 0 || strings.HasSuffix(headerPath, "/") {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedPath, headerPath)
	}
	return headerPath[slash+1:], nil
}

// ChangedFiles returns the sorted set of source file paths modified by the
// patches in the given local files. A patch that names no files at all is
// rejected with ErrUnrecognizedPatch.
func ChangedFiles(patchPaths []string) ([]string, error) {
	set := make(map[string]bool)
	for _, patchPath := range patchPaths {
		data, err := os.ReadFile(patchPath)
		if err != nil {
			return nil, fmt.Errorf("reading patch %s: %w", patchPath, err)
		}
		files, err := parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", patchPath, err)
		}
		for _, f := range files {
			set[f] = true
		}
	}

	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

// parse extracts the changed file set from one patch's content.
func parse(content string) ([]string, error) {
	set := make(map[string]bool)
	for _, m := range headerRe.FindAllStringSubmatch(content, -1) {
		if m[0] == "---" {
			// A separator line: everything seen so far belonged to the
			// mbox preamble, not the diff.
			set = make(map[string]bool)
			continue
		}
		changeOld, changeNew, renameOld, renameNew := m[1], m[3], m[5], m[6]
		if changeOld != "" && changeNew != "" {
			oldFile, err := srcFilePath(changeOld)
			if err != nil {
				return nil, err
			}
			newFile, err := srcFilePath(changeNew)
			if err != nil {
				return nil, err
			}
			if oldFile == "" && newFile == "" {
				return nil, ErrUnrecognizedPatch
			}
			if oldFile != "" {
				set[oldFile] = true
			}
			if newFile != "" {
				set[newFile] = true
			}
		} else {
			set[renameOld] = true
			set[renameNew] = true
		}
	}
	if len(set) == 0 {
		return nil, ErrUnrecognizedPatch
	}

	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}
