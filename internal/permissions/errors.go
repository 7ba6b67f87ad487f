// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package permissions

import (
	"errors"
	"fmt"
	"reflect"
)

// Construction errors.
var (
	// ErrNilUserKey is returned by New when Config.UserKey is nil.
	ErrNilUserKey = errors.New("user key function is required")

	// ErrNilGroup is returned by AddGroup when the group is nil.
	ErrNilGroup = errors.New("group is nil")

	// ErrNilMatch is returned by NewGroup-built groups that were
	// constructed without a match predicate.
	ErrNilMatch = errors.New("group match predicate is nil")

	// ErrEmptyGroupName is returned by AddGroup when the group name is
	// empty.
	ErrEmptyGroupName = errors.New("group name is empty")

	// ErrEmptyPermissionName is returned by AddPermission when the
	// permission name is empty.
	ErrEmptyPermissionName = errors.New("permission name is empty")
)

// DuplicateGroupNameError is returned by AddGroup when the group name is
// already bound to a different content type and reuse mode is disabled.
type DuplicateGroupNameError struct {
	Name     string
	Existing reflect.Type
	Proposed reflect.Type
}

func (e *DuplicateGroupNameError) Error() string {
	return fmt.Sprintf("group %q is already bound to content type %s (proposed %s); enable group name reuse to bind one name to multiple content types",
		e.Name, e.Existing, e.Proposed)
}

// UnknownGroupError is returned when a group name does not resolve to a
// registered group. ContentType is non-nil when the lookup was
// disambiguated by content type and no binding existed for that type.
type UnknownGroupError struct {
	Name        string
	ContentType reflect.Type
}

func (e *UnknownGroupError) Error() string {
	if e.ContentType != nil {
		return fmt.Sprintf("no group %q registered for content type %s", e.Name, e.ContentType)
	}
	return fmt.Sprintf("no group %q registered", e.Name)
}

// AmbiguousGroupNameError is returned when a name-only lookup matches
// more than one group under reuse mode. Callers must disambiguate by
// content type.
type AmbiguousGroupNameError struct {
	Name         string
	ContentTypes []reflect.Type
}

func (e *AmbiguousGroupNameError) Error() string {
	return fmt.Sprintf("group name %q is bound to %d content types; disambiguate by content type", e.Name, len(e.ContentTypes))
}

// TypeMismatchError is returned when a group's match predicate is invoked
// with an item whose runtime type does not match the group's declared
// content type. This is a programming error on the caller's side, never a
// silent false.
type TypeMismatchError struct {
	Group string
	Want  reflect.Type
	Got   reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("group %q matches content type %s, got item of type %s", e.Group, e.Want, e.Got)
}
