package discovery

import (
	"fmt"
	"path/filepath"
	"strings"
)

// fileGroup is a clustered set of files sharing one exact header.
type fileGroup struct {
	name   string
	header []string
	paths  []string
}

// headerKey builds the identity key for a header: same names, same
// order, same count. The unit separator keeps names with commas from
// colliding.
func headerKey(header []string) string {
	return strings.Join(header, "\x1f")
}

// cluster groups candidates by exact header identity, preserving
// first-seen order, and assigns each group a deterministic name.
func cluster(candidates []candidateFile) []fileGroup {
	byKey := make(map[string]*fileGroup)
	var order []string
	for _, c := range candidates {
		k := headerKey(c.header)
		g, ok := byKey[k]
		if !ok {
			g = &fileGroup{header: c.header}
			byKey[k] = g
			order = append(order, k)
		}
		g.paths = append(g.paths, c.path)
	}

	used := make(map[string]bool, len(order))
	groups := make([]fileGroup, 0, len(order))
	synthesized := 0
	for _, k := range order {
		g := byKey[k]
		name := deriveName(g.paths)
		if name == "" {
			synthesized++
			name = fmt.Sprintf("schema_%d", synthesized)
		}
		name = uniqueName(name, used)
		used[name] = true
		g.name = name
		groups = append(groups, *g)
	}
	return groups
}

// deriveName picks a stable, human-meaningful name for a file group:
// the shared filename stem, else the shared stem prefix trimmed of
// trailing counters, else the shared parent directory. Empty means no
// natural name exists and the caller synthesizes one.
func deriveName(paths []string) string {
	stems := make([]string, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		stems[i] = strings.TrimSuffix(base, filepath.Ext(base))
	}

	allSame := true
	for _, s := range stems[1:] {
		if s != stems[0] {
			allSame = false
			break
		}
	}
	if allSame && stems[0] != "" {
		return stems[0]
	}

	prefix := commonPrefix(stems)
	prefix = strings.TrimRight(prefix, "0123456789")
	prefix = strings.TrimRight(prefix, "-_. ")
	if len(prefix) >= 2 {
		return prefix
	}

	dir := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		if filepath.Dir(p) != dir {
			return ""
		}
	}
	if base := filepath.Base(dir); base != "." && base != string(filepath.Separator) {
		return base
	}
	return ""
}

func commonPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	p := ss[0]
	for _, s := range ss[1:] {
		for !strings.HasPrefix(s, p) {
			p = p[:len(p)-1]
			if p == "" {
				return ""
			}
		}
	}
	return p
}

// uniqueName suffixes a counter when two groups derive the same name,
// so every schema in one response is individually addressable.
func uniqueName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for i := 2; ; i++ {
		alt := fmt.Sprintf("%s_%d", name, i)
		if !used[alt] {
			return alt
		}
	}
}
