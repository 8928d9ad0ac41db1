package formz

import "strings"

// Walk calls fn for c and every descendant, parents before children, in
// registration order. path is the dot-delimited path relative to c.
// Returning false from fn skips the control's descendants.
func Walk(c Control, fn func(path string, c Control) bool) {
	walk(c, nil, fn)
}

func walk(c Control, path []string, fn func(string, Control) bool) {
	if !fn(strings.Join(path, "."), c) {
		return
	}
	c.forEachChild(func(key string, child Control) {
		walk(child, append(path[:len(path):len(path)], key), fn)
	})
}
