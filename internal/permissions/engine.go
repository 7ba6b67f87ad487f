// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package permissions

import "reflect"

// Decision is a reusable per-item predicate for one
// (permission, user, content type) triple. It reports whether the item
// is authorized. The only possible error is a TypeMismatchError from
// applying the decision to an item outside its content type.
//
// A Decision is a pure function of the filter's frozen configuration: it
// may be applied to any number of items, from any number of goroutines,
// and always yields the same result for the same item.
type Decision func(item any) (bool, error)

// Decision builds the combined allow/deny decision function for the
// permission, user and content type.
//
// The merge works in two layers. The global resolver yields a verdict:
// any Deny entry for the permission dominates, otherwise any Allow entry
// grants, otherwise Inherit. The relational layer partitions the content
// type's groups that define the permission into allow groups and deny
// groups. An item is authorized when at least one allow path matches it
// (a global Allow is a constant-true allow path) and no deny path
// matches it (a global Deny is a constant-true deny path). An empty
// allow side means unconditional denial: absence of rules fails closed.
func (f *Filter[U]) Decision(permission string, user U, contentType reflect.Type) Decision {
	folded := fold(permission)
	verdict := f.globalVerdict(folded, user)
	if verdict == Deny {
		return denyAll
	}

	var allowGroups, denyGroups []*Group
	for _, g := range f.registry.groupsFor(contentType, folded) {
		switch g.value(folded) {
		case Allow:
			allowGroups = append(allowGroups, g)
		case Deny:
			denyGroups = append(denyGroups, g)
		}
	}

	globallyAllowed := verdict == Allow
	if !globallyAllowed && len(allowGroups) == 0 {
		return denyAll
	}
	if globallyAllowed && len(denyGroups) == 0 {
		return allowAll
	}

	userKey := f.userKey(user)
	return func(item any) (bool, error) {
		for _, g := range denyGroups {
			matched, err := g.Match(item, userKey)
			if err != nil {
				return false, err
			}
			if matched {
				return false, nil
			}
		}
		if globallyAllowed {
			return true, nil
		}
		for _, g := range allowGroups {
			matched, err := g.Match(item, userKey)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil
	}
}

// globalVerdict folds the global resolver's entries for an
// already-folded permission name. Deny dominates Allow; no resolver or
// no matching entry yields Inherit.
func (f *Filter[U]) globalVerdict(folded string, user U) Value {
	if f.globals == nil {
		return Inherit
	}
	verdict := Inherit
	for _, p := range f.globals(user) {
		if fold(p.Name) != folded {
			continue
		}
		switch p.Value {
		case Deny:
			return Deny
		case Allow:
			verdict = Allow
		}
	}
	return verdict
}

func denyAll(any) (bool, error)  { return false, nil }
func allowAll(any) (bool, error) { return true, nil }
