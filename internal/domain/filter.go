package domain

import (
	"reflect"
	"strconv"
	"strings"
)

// Filter selects documents by field value. Keys may be dotted paths that
// descend into nested documents and lists. A scalar condition matches a field
// equal to it or a list containing it; an In condition matches any of its
// values; a nil condition matches a missing field.
type Filter map[string]any

// In is a membership condition
type In []any

// InStrings builds an In condition from ids
func InStrings(ids []string) In {
	out := make(In, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// Match reports whether doc satisfies every condition of the filter
func (f Filter) Match(doc Document) bool {
	for key, cond := range f {
		values := lookup(map[string]any(doc), strings.Split(key, "."))
		if !matchCondition(values, cond) {
			return false
		}
	}
	return true
}

func matchCondition(values []any, cond any) bool {
	if cond == nil {
		if len(values) == 0 {
			return true
		}
		for _, v := range values {
			if v == nil {
				return true
			}
		}
		return false
	}
	wanted := []any{cond}
	if in, ok := cond.(In); ok {
		wanted = in
	}
	for _, v := range values {
		for _, w := range wanted {
			if Equal(v, w) {
				return true
			}
		}
	}
	return false
}

// lookup collects every value reachable through path. Lists are flattened at
// each step so that "a.b" reaches b in every element of a list a.
func lookup(v any, path []string) []any {
	if len(path) == 0 {
		if list, ok := asList(v); ok {
			return list
		}
		return []any{v}
	}
	switch node := v.(type) {
	case map[string]any:
		next, ok := node[path[0]]
		if !ok {
			return nil
		}
		return lookup(next, path[1:])
	case Document:
		return lookup(map[string]any(node), path)
	default:
		list, ok := asList(v)
		if !ok {
			return nil
		}
		var out []any
		for _, item := range list {
			out = append(out, lookup(item, path)...)
		}
		return out
	}
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []Document:
		out := make([]any, len(l))
		for i, d := range l {
			out[i] = d
		}
		return out, true
	}
	return nil, false
}

// Equal compares stored values loosely: numbers compare by value regardless
// of their Go type and numeric strings compare equal to the number they spell.
func Equal(a, b any) bool {
	fa, aNum := Number(a)
	fb, bNum := Number(b)
	switch {
	case aNum && bNum:
		return fa == fb
	case aNum:
		if s, ok := b.(string); ok {
			f, err := strconv.ParseFloat(s, 64)
			return err == nil && f == fa
		}
		return false
	case bNum:
		if s, ok := a.(string); ok {
			f, err := strconv.ParseFloat(s, 64)
			return err == nil && f == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
