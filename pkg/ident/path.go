package ident

import (
	"strconv"
	"strings"
)

// Path is the position of a node relative to its owning instance's render
// root. The root itself is the empty path.
type Path []int

// Child returns the path of the i'th child of p.
func (p Path) Child(i int) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = i
	return child
}

// Sibling returns the path of the next sibling of p.
// The root path has no siblings and is returned unchanged.
func (p Path) Sibling() Path {
	if len(p) == 0 {
		return p
	}
	sibling := make(Path, len(p))
	copy(sibling, p)
	sibling[len(p)-1]++
	return sibling
}

// Is reports whether p equals the path formed by indices.
func (p Path) Is(indices ...int) bool {
	if len(p) != len(indices) {
		return false
	}
	for i := range p {
		if p[i] != indices[i] {
			return false
		}
	}
	return true
}

// Equal reports whether p and other name the same position.
func (p Path) Equal(other Path) bool {
	return p.Is(other...)
}

// String returns the dotted form of the path ("0.1.2"), or "" for the root.
func (p Path) String() string {
	var b strings.Builder
	for i, idx := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}

// ParsePath parses the dotted form produced by String.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		p[i] = n
	}
	return p, nil
}
