package aql

import "strings"

// Path is an attribute path such as a.b.c, read left to right from a
// document.
type Path []string

// ParsePath splits a dotted attribute path. The empty string yields an empty
// path.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return Path(strings.Split(s, "."))
}

// String returns the dotted form of the path.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Equal reports whether two paths name the same attribute.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Paths parses each argument with ParsePath.
func Paths(names ...string) []Path {
	out := make([]Path, len(names))
	for i, n := range names {
		out[i] = ParsePath(n)
	}
	return out
}
