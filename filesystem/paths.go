package filesystem

import (
	"path"
	"strings"
)

// pathStartsWith reports whether p is strictly inside dir
func pathStartsWith(p, dir string) bool {
	if p == dir {
		return false
	}
	if dir == "/" {
		return strings.HasPrefix(p, "/")
	}
	return strings.HasPrefix(p, dir+"/")
}

func isSameOrInside(p, dir string) bool {
	return p == dir || pathStartsWith(p, dir)
}

// isRootDirPath reports whether p has no parent
func isRootDirPath(p string) bool {
	return path.Dir(p) == p
}

func dirPath(p string) string {
	return path.Dir(p)
}

// commonAncestor returns the deepest directory containing both a and b
func commonAncestor(a, b string) string {
	for !isSameOrInside(b, a) {
		a = path.Dir(a)
	}
	return a
}
