package filesystem

import (
	"strings"

	"golang.org/x/text/cases"
)

// PathCasingMaintainer remembers the first casing seen for every path on a
// case-insensitive store so that equivalent paths resolve to one identity.
// On case-sensitive stores it is a pass-through.
type PathCasingMaintainer struct {
	caseInsensitive bool
	folder          cases.Caser
	paths           map[string]string // case-folded path -> canonical path
}

func NewPathCasingMaintainer(caseSensitive bool) *PathCasingMaintainer {
	m := &PathCasingMaintainer{caseInsensitive: !caseSensitive}
	if m.caseInsensitive {
		m.folder = cases.Fold()
		m.paths = make(map[string]string)
	}
	return m
}

// GetPath returns the canonical casing of p. Each ancestor prefix is resolved
// too, so "/a/x" becomes "/A/x" once "/A" has been seen. Unseen prefixes are
// recorded as canonical.
func (m *PathCasingMaintainer) GetPath(p string) string {
	if !m.caseInsensitive || p == "" {
		return p
	}
	if p == "/" {
		return p
	}

	var canonical strings.Builder
	rest := p
	if strings.HasPrefix(rest, "/") {
		rest = rest[1:]
	}
	for _, part := range strings.Split(rest, "/") {
		candidate := canonical.String() + "/" + part
		key := m.fold(candidate)
		existing, ok := m.paths[key]
		if !ok {
			m.paths[key] = candidate
			existing = candidate
		}
		canonical.Reset()
		canonical.WriteString(existing)
	}
	return canonical.String()
}

// RemovePath forgets p and every recorded path beneath it
func (m *PathCasingMaintainer) RemovePath(p string) {
	if !m.caseInsensitive {
		return
	}
	key := m.fold(p)
	delete(m.paths, key)
	prefix := strings.TrimSuffix(key, "/") + "/"
	for k := range m.paths {
		if strings.HasPrefix(k, prefix) {
			delete(m.paths, k)
		}
	}
}

func (m *PathCasingMaintainer) fold(p string) string {
	return m.folder.String(p)
}
