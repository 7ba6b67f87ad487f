// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

// Package permissions implements the permission resolution engine at the
// heart of Gatewarden.
//
// The engine combines two signals into one allow/deny decision per
// permission name:
//
//   - Relational rules: named groups bind a content type to a membership
//     predicate and a set of permission verdicts. A user's rights on an
//     item depend on which groups match the (item, user) pair.
//   - Global rules: an optional resolver reports permissions a user
//     holds independently of any item (a site administrator, say).
//
// # Decision Semantics
//
// For a permission P, user U and content type T:
//
//  1. The global verdict is Deny if any global entry for P is Deny,
//     else Allow if any is Allow, else Inherit.
//  2. Groups of type T that define P are split into allow groups and
//     deny groups by their verdict for P.
//  3. An item passes when at least one allow path matches it (a global
//     Allow counts as an always-matching allow path) and no deny path
//     matches it (a global Deny counts as an always-matching deny path).
//
// Deny strictly dominates: one matching deny group vetoes any number of
// allow paths. An empty allow side means the item is never authorized —
// absence of rules fails closed, and an unknown permission name is a
// well-defined deny, not an error.
//
// # Usage
//
// Configure a filter once, then query it:
//
//	filter, err := permissions.New(permissions.Config[User]{
//	    UserKey: func(u User) string { return u.ID },
//	    GlobalPermissions: func(u User) []permissions.GlobalPermission {
//	        if u.Admin {
//	            return []permissions.GlobalPermission{{Name: "edit", Value: permissions.Allow}}
//	        }
//	        return nil
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//
//	filter.AddGroup(permissions.NewGroup("post-editor", func(p Post, userKey string) bool {
//	    return p.EditorID == userKey
//	}))
//	filter.AddPermission("post-editor", "edit", permissions.Allow)
//
//	visible, err := permissions.FilterItems(filter, posts, "edit", user)
//
// # Content Types
//
// A group's content type is the Go type of its predicate's item
// parameter, captured by NewGroup's type parameter. Queries select
// groups by the item's runtime type, so a pointer type and its element
// type are distinct content types. With AllowReusingGroupNames enabled,
// one group name may be bound to several content types and every lookup
// disambiguates by type; a permission check for one type never consults
// another type's binding of the same name.
//
// # Concurrency
//
// Configuration (AddGroup, AddPermission) must complete before the
// first evaluation call; the package performs no internal locking.
// After that, Test, FilterItems, TestGlobal, IsMember and Explain are
// pure reads and safe for concurrent use.
package permissions
