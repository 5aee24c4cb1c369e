package adapters

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// globPatterns holds absolute include and "!" exclude patterns
type globPatterns struct {
	include []string
	exclude []string
	fold    func(string) string
}

// parseGlobPatterns makes every pattern absolute against cwd and separates
// exclusions. fold, if set, is applied to patterns and matched paths alike.
func parseGlobPatterns(patterns []string, cwd string, fold func(string) string) (globPatterns, error) {
	if fold == nil {
		fold = func(s string) string { return s }
	}
	g := globPatterns{fold: fold}
	for _, pattern := range patterns {
		exclude := strings.HasPrefix(pattern, "!")
		pattern = strings.TrimPrefix(pattern, "!")
		if !path.IsAbs(pattern) {
			pattern = path.Join(cwd, pattern)
		}
		if !doublestar.ValidatePattern(pattern) {
			return g, fmt.Errorf("invalid glob pattern %q", pattern)
		}
		if exclude {
			g.exclude = append(g.exclude, fold(pattern))
		} else {
			g.include = append(g.include, pattern)
		}
	}
	return g, nil
}

func (g globPatterns) included(p string) bool {
	for _, pattern := range g.include {
		if ok, _ := doublestar.Match(g.fold(pattern), g.fold(p)); ok {
			return true
		}
	}
	return false
}

func (g globPatterns) excluded(p string) bool {
	for _, pattern := range g.exclude {
		if ok, _ := doublestar.Match(pattern, g.fold(p)); ok {
			return true
		}
	}
	return false
}

// match reports whether p is selected by the include patterns and not
// removed by an exclusion
func (g globPatterns) match(p string) bool {
	return g.included(p) && !g.excluded(p)
}
