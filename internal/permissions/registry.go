// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package permissions

import "reflect"

// Registry holds the ordered collection of groups owned by a filter.
//
// In the default mode each group name is bound to exactly one content
// type; registering the same name against a different type fails with a
// DuplicateGroupNameError. With reuse enabled, one name may be bound to
// several distinct content types and lookups disambiguate by content
// type at query time.
//
// A Registry is mutated only during configuration (AddGroup,
// AddPermission) and must not be modified once evaluation begins.
// Evaluation calls are safe to run concurrently against a registry that
// is no longer being mutated; concurrent mutation and evaluation is the
// caller's responsibility to exclude.
type Registry struct {
	allowReuse bool
	groups     []*Group
	byName     map[string][]*Group
}

// NewRegistry creates an empty registry. allowReuse enables binding one
// group name to multiple unrelated content types.
func NewRegistry(allowReuse bool) *Registry {
	return &Registry{
		allowReuse: allowReuse,
		byName:     make(map[string][]*Group),
	}
}

// AddGroup registers a group.
//
// Re-registering the identical (name, content type) pair replaces the
// existing group's match predicate but preserves any permissions already
// attached to it. Registering an existing name against a different
// content type fails with a DuplicateGroupNameError unless reuse is
// enabled.
func (r *Registry) AddGroup(g *Group) error {
	if g == nil {
		return ErrNilGroup
	}
	if g.name == "" {
		return ErrEmptyGroupName
	}
	if g.match == nil {
		return ErrNilMatch
	}

	key := fold(g.name)
	for _, existing := range r.byName[key] {
		if existing.contentType == g.contentType {
			// Same binding: swap the predicate, keep accumulated
			// permissions.
			existing.match = g.match
			return nil
		}
		if !r.allowReuse {
			return &DuplicateGroupNameError{
				Name:     g.name,
				Existing: existing.contentType,
				Proposed: g.contentType,
			}
		}
	}

	r.groups = append(r.groups, g)
	r.byName[key] = append(r.byName[key], g)
	return nil
}

// AddPermission assigns a verdict for the named permission on every
// group registered under groupName. Under reuse mode this means all
// content-type bindings of the name receive the assignment; use
// AddPermissionFor to target a single binding. Returns an
// UnknownGroupError when no group carries the name.
func (r *Registry) AddPermission(groupName, permission string, v Value) error {
	if permission == "" {
		return ErrEmptyPermissionName
	}
	matched := r.byName[fold(groupName)]
	if len(matched) == 0 {
		return &UnknownGroupError{Name: groupName}
	}
	folded := fold(permission)
	for _, g := range matched {
		g.perms[folded] = v
	}
	return nil
}

// AddPermissionFor assigns a verdict for the named permission on the
// single group registered under groupName for content type T. It is the
// disambiguated form of AddPermission for registries with reuse enabled.
func AddPermissionFor[T any](r *Registry, groupName, permission string, v Value) error {
	if permission == "" {
		return ErrEmptyPermissionName
	}
	contentType := typeOf[T]()
	for _, g := range r.byName[fold(groupName)] {
		if g.contentType == contentType {
			g.perms[fold(permission)] = v
			return nil
		}
	}
	return &UnknownGroupError{Name: groupName, ContentType: contentType}
}

// Find resolves a group by name, disambiguated by content type.
//
// With a non-nil contentType the group bound to that exact type is
// returned. If the name exists but only under other content types, the
// result depends on how many bindings exist: a single binding is
// returned as-is (its predicate will surface the TypeMismatchError on
// invocation), while multiple bindings fail with an UnknownGroupError
// for the requested type.
//
// With a nil contentType the lookup succeeds only when the name has
// exactly one binding; otherwise an AmbiguousGroupNameError is returned.
func (r *Registry) Find(name string, contentType reflect.Type) (*Group, error) {
	matched := r.byName[fold(name)]
	if len(matched) == 0 {
		return nil, &UnknownGroupError{Name: name}
	}

	if contentType == nil {
		if len(matched) > 1 {
			types := make([]reflect.Type, len(matched))
			for i, g := range matched {
				types[i] = g.contentType
			}
			return nil, &AmbiguousGroupNameError{Name: name, ContentTypes: types}
		}
		return matched[0], nil
	}

	for _, g := range matched {
		if g.contentType == contentType {
			return g, nil
		}
	}
	if len(matched) == 1 {
		return matched[0], nil
	}
	return nil, &UnknownGroupError{Name: name, ContentType: contentType}
}

// Groups returns the registered groups in insertion order.
func (r *Registry) Groups() []*Group {
	out := make([]*Group, len(r.groups))
	copy(out, r.groups)
	return out
}

// Len returns the number of registered groups.
func (r *Registry) Len() int { return len(r.groups) }

// groupsFor returns the groups bound to contentType whose permission map
// contains the already-folded permission name, in insertion order.
func (r *Registry) groupsFor(contentType reflect.Type, folded string) []*Group {
	var out []*Group
	for _, g := range r.groups {
		if g.contentType != contentType {
			continue
		}
		if _, ok := g.perms[folded]; ok {
			out = append(out, g)
		}
	}
	return out
}
