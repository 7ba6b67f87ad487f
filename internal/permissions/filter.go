// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package permissions

import "reflect"

// GlobalPermission pairs a permission name with a verdict. A global
// permission resolver reports the non-relational rights a user holds
// independently of any content item (a site administrator, for example).
type GlobalPermission struct {
	Name  string
	Value Value
}

// Config configures a Filter for user entities of type U.
type Config[U any] struct {
	// UserKey maps a user entity to the opaque key passed into group
	// match predicates. Required. Use IdentityKey when users already
	// are their keys.
	UserKey func(U) string

	// GlobalPermissions maps a user entity to its non-relational
	// permission set. Optional; when nil, global permissions always
	// resolve to Inherit.
	GlobalPermissions func(U) []GlobalPermission

	// AllowReusingGroupNames lets one group name be bound to multiple
	// distinct content types. Lookups then disambiguate by content
	// type at query time.
	AllowReusingGroupNames bool
}

// Filter evaluates per-item access permissions by combining relational
// group membership rules with optional global user permissions.
//
// A Filter is configured once (AddGroup, AddPermission) and then queried
// (Test, FilterItems, TestGlobal, IsMember). Configuration must complete
// before the first evaluation call; the Filter performs no internal
// locking. Evaluation calls are pure reads and safe to issue
// concurrently once configuration is done.
type Filter[U any] struct {
	userKey  func(U) string
	globals  func(U) []GlobalPermission
	registry *Registry
}

// New creates a Filter from the given configuration. Returns
// ErrNilUserKey when Config.UserKey is unset.
func New[U any](cfg Config[U]) (*Filter[U], error) {
	if cfg.UserKey == nil {
		return nil, ErrNilUserKey
	}
	return &Filter[U]{
		userKey:  cfg.UserKey,
		globals:  cfg.GlobalPermissions,
		registry: NewRegistry(cfg.AllowReusingGroupNames),
	}, nil
}

// IdentityKey is a UserKey function for the simplified variant where the
// user entity already is its key.
func IdentityKey(user string) string { return user }

// AddGroup registers a group on the filter's registry.
func (f *Filter[U]) AddGroup(g *Group) error {
	return f.registry.AddGroup(g)
}

// AddPermission assigns a permission verdict on every group registered
// under groupName.
func (f *Filter[U]) AddPermission(groupName, permission string, v Value) error {
	return f.registry.AddPermission(groupName, permission, v)
}

// Registry exposes the filter's group registry, for disambiguated
// configuration (AddPermissionFor) and for listing registered groups.
func (f *Filter[U]) Registry() *Registry { return f.registry }

// Test reports whether user holds the permission on a single item. The
// item's runtime type selects the groups considered. Absence of any
// matching rule is a valid fail-closed outcome (false, nil), not an
// error.
func (f *Filter[U]) Test(item any, permission string, user U) (bool, error) {
	return f.Decision(permission, user, reflect.TypeOf(item))(item)
}

// TestGlobal reports whether user holds the permission globally,
// without reference to any content item. Relational rules are ignored;
// only the global resolver's verdict counts, and only an explicit Allow
// (not vetoed by a Deny) succeeds.
func (f *Filter[U]) TestGlobal(permission string, user U) bool {
	return f.globalVerdict(fold(permission), user) == Allow
}

// IsMember evaluates the named group's membership predicate directly
// against an item and user, bypassing permission assignments. Under
// reuse mode the name is resolved to the binding whose content type
// matches the item's runtime type; the lookup fails when the binding is
// absent or ambiguous.
func (f *Filter[U]) IsMember(item any, groupName string, user U) (bool, error) {
	g, err := f.registry.Find(groupName, reflect.TypeOf(item))
	if err != nil {
		return false, err
	}
	return g.Match(item, f.userKey(user))
}

// FilterItems returns the items for which the user holds the permission,
// preserving input order. For a concrete item type a single decision
// function is built and applied to every element; for an interface item
// type the decision is resolved per runtime type, so mixed-type slices
// evaluate each element against its own content type's groups.
func FilterItems[T any, U any](f *Filter[U], items []T, permission string, user U) ([]T, error) {
	if len(items) == 0 {
		return nil, nil
	}

	static := typeOf[T]()
	if static.Kind() != reflect.Interface {
		return filterWith(f.Decision(permission, user, static), items)
	}

	decisions := make(map[reflect.Type]Decision)
	out := make([]T, 0, len(items))
	for _, item := range items {
		t := reflect.TypeOf(item)
		decide, ok := decisions[t]
		if !ok {
			decide = f.Decision(permission, user, t)
			decisions[t] = decide
		}
		allowed, err := decide(item)
		if err != nil {
			return nil, err
		}
		if allowed {
			out = append(out, item)
		}
	}
	return out, nil
}

func filterWith[T any](decide Decision, items []T) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		allowed, err := decide(item)
		if err != nil {
			return nil, err
		}
		if allowed {
			out = append(out, item)
		}
	}
	return out, nil
}
