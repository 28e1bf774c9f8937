package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"csvpub/internal/domain"
)

// Locate expands a glob pattern into the sorted set of regular files
// it matches. Matches are deduplicated and absolutized so downstream
// ordering is stable regardless of how the pattern was written.
func Locate(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, &domain.ProtocolError{Reason: "settings: fileGlob must not be empty"}
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &domain.ProtocolError{Reason: fmt.Sprintf("settings: malformed glob %q", pattern), Err: err}
	}

	seen := make(map[string]struct{}, len(matches))
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		// Directories and specials can match a glob too; only regular
		// files are candidates.
		info, err := os.Stat(abs)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, abs)
	}
	sort.Strings(files)
	return files, nil
}
