package content

import "reflect"

// Clone returns a deep copy of c that shares no child slices with it.
func Clone(c Content) Content {
	switch v := c.(type) {
	case nil:
		return nil
	case Container:
		return v.WithElements(CloneAll(v.Elements()))
	case If:
		return If{Flag: v.Flag, Then: Clone(v.Then), Else: Clone(v.Else)}
	case Unknown:
		return Unknown{Tag: v.Tag, Payload: cloneValue(v.Payload), Bare: v.Bare}
	default:
		return c
	}
}

// CloneAll deep-copies a sequence of nodes. A nil sequence stays nil.
func CloneAll(nodes []Content) []Content {
	if nodes == nil {
		return nil
	}
	out := make([]Content, len(nodes))
	for i, n := range nodes {
		out[i] = Clone(n)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Equal reports whether two trees are structurally identical. A nil child
// sequence and an empty one are considered equal.
func Equal(a, b Content) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Container:
		y, ok := b.(Container)
		if !ok {
			return false
		}
		if f, ok := x.(Form); ok {
			g, ok := y.(Form)
			if !ok || f.PostURL != g.PostURL {
				return false
			}
		}
		return EqualAll(x.Elements(), y.Elements())
	case If:
		y, ok := b.(If)
		return ok && x.Flag == y.Flag && Equal(x.Then, y.Then) && Equal(x.Else, y.Else)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// EqualAll compares two sequences element by element.
func EqualAll(a, b []Content) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Children returns the direct descendants of c: a container's elements or
// both branches of an If. Leaves have none.
func Children(c Content) []Content {
	switch v := c.(type) {
	case Container:
		return v.Elements()
	case If:
		return []Content{v.Then, v.Else}
	default:
		return nil
	}
}

// Walk visits c and its descendants in pre-order. Returning false from fn
// skips the children of the node just visited. nil nodes are not visited.
func Walk(c Content, fn func(Content) bool) {
	if c == nil {
		return
	}
	if !fn(c) {
		return
	}
	for _, child := range Children(c) {
		Walk(child, fn)
	}
}

// HasDirectives reports whether any If, Include or Ctx node remains in c.
func HasDirectives(c Content) bool {
	found := false
	Walk(c, func(n Content) bool {
		if n.Kind().IsDirective() {
			found = true
		}
		return !found
	})
	return found
}
