// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package permissions

import (
	"reflect"
	"strings"
)

// MatchFunc is a group membership predicate for items of type T. It
// receives the item under evaluation and the opaque user key produced by
// the filter's UserKey function, and reports whether the user belongs to
// the group with respect to that item.
//
// Predicates must be pure and cheap: they are invoked once per item per
// evaluation and must not mutate the item or retain references to it.
type MatchFunc[T any] func(item T, userKey string) bool

// Group is a named rule binding a content type to a membership predicate
// and a set of permission verdicts. Groups are created with NewGroup and
// registered on a Registry; the content type is captured from the
// predicate's type parameter, so a group can never be invoked with a
// wrongly typed item without surfacing a TypeMismatchError.
type Group struct {
	name        string
	contentType reflect.Type
	match       func(item any, userKey string) (bool, error)
	perms       map[string]Value
}

// NewGroup creates a group for content type T. The group name is
// case-insensitive within its content type. The match predicate is
// wrapped with a single type assertion; invoking it with anything other
// than a T yields a TypeMismatchError.
func NewGroup[T any](name string, match MatchFunc[T]) *Group {
	contentType := typeOf[T]()
	g := &Group{
		name:        name,
		contentType: contentType,
		perms:       make(map[string]Value),
	}
	if match == nil {
		return g
	}
	g.match = func(item any, userKey string) (bool, error) {
		typed, ok := item.(T)
		if !ok {
			return false, &TypeMismatchError{Group: name, Want: contentType, Got: reflect.TypeOf(item)}
		}
		return match(typed, userKey), nil
	}
	return g
}

// Name returns the group's name as originally registered.
func (g *Group) Name() string { return g.name }

// ContentType returns the Go type the group's predicate accepts.
func (g *Group) ContentType() reflect.Type { return g.contentType }

// Match invokes the membership predicate against item for the given user
// key. It returns a TypeMismatchError when item is not of the group's
// content type.
func (g *Group) Match(item any, userKey string) (bool, error) {
	if g.match == nil {
		return false, ErrNilMatch
	}
	return g.match(item, userKey)
}

// Permissions returns a copy of the group's permission assignments,
// keyed by folded permission name.
func (g *Group) Permissions() map[string]Value {
	out := make(map[string]Value, len(g.perms))
	for name, v := range g.perms {
		out[name] = v
	}
	return out
}

// value returns the verdict for an already-folded permission name.
// Unassigned permissions report Inherit.
func (g *Group) value(folded string) Value {
	return g.perms[folded]
}

// typeOf resolves the reflect.Type of T without requiring a value.
// Interface types are preserved (not flattened to their dynamic type).
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// fold normalizes group and permission names for case-insensitive
// identity.
func fold(s string) string { return strings.ToLower(s) }
