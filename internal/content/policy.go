// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package content

import (
	"fmt"
	"slices"

	"github.com/ljmarsh/gatewarden/internal/auth"
	"github.com/ljmarsh/gatewarden/internal/config"
	"github.com/ljmarsh/gatewarden/internal/permissions"
)

// Built-in group names. Predicates live here; verdict assignments come
// from the policy configuration.
const (
	GroupSubmitter   = "submitter"
	GroupEditor      = "editor"
	GroupOwner       = "owner"
	GroupMember      = "member"
	GroupStakeholder = "stakeholder"
)

// BuildFilter constructs the permission filter for API subjects:
// registers the built-in content groups, then applies the verdict
// assignments and global grants from the policy configuration.
func BuildFilter(policy config.PolicyConfig) (*permissions.Filter[auth.Subject], error) {
	globals := globalResolver(policy.GlobalGrants)

	f, err := permissions.New(permissions.Config[auth.Subject]{
		UserKey:                func(s auth.Subject) string { return s.ID },
		GlobalPermissions:      globals,
		AllowReusingGroupNames: policy.AllowGroupNameReuse,
	})
	if err != nil {
		return nil, fmt.Errorf("creating permission filter: %w", err)
	}

	if err := registerGroups(f, policy.AllowGroupNameReuse); err != nil {
		return nil, err
	}
	if err := applyGrants(f, policy.Grants); err != nil {
		return nil, err
	}
	return f, nil
}

// registerGroups binds the built-in groups to their content types. The
// stakeholder group is bound to both schemas and therefore needs name
// reuse enabled.
func registerGroups(f *permissions.Filter[auth.Subject], allowReuse bool) error {
	groups := []*permissions.Group{
		permissions.NewGroup(GroupSubmitter, func(p Post, userKey string) bool {
			return p.Submitter == userKey
		}),
		permissions.NewGroup(GroupEditor, func(p Post, userKey string) bool {
			return p.Editor == userKey
		}),
		permissions.NewGroup(GroupOwner, func(p Project, userKey string) bool {
			return p.Owner == userKey
		}),
		permissions.NewGroup(GroupMember, func(p Project, userKey string) bool {
			return slices.Contains(p.Members, userKey)
		}),
	}

	if allowReuse {
		groups = append(groups,
			permissions.NewGroup(GroupStakeholder, func(p Post, userKey string) bool {
				return p.Submitter == userKey || p.Editor == userKey
			}),
			permissions.NewGroup(GroupStakeholder, func(p Project, userKey string) bool {
				return p.Owner == userKey || slices.Contains(p.Members, userKey)
			}),
		)
	}

	for _, g := range groups {
		if err := f.AddGroup(g); err != nil {
			return fmt.Errorf("registering group %q: %w", g.Name(), err)
		}
	}
	return nil
}

// applyGrants assigns configured verdicts to groups. A grant naming a
// content type targets that binding only; without one it applies to
// every binding of the group name.
func applyGrants(f *permissions.Filter[auth.Subject], grants []config.GrantConfig) error {
	for _, grant := range grants {
		value, err := permissions.ParseValue(grant.Value)
		if err != nil {
			return fmt.Errorf("grant for group %q: %w", grant.Group, err)
		}

		switch grant.ContentType {
		case "":
			err = f.AddPermission(grant.Group, grant.Permission, value)
		case TypeNamePost:
			err = permissions.AddPermissionFor[Post](f.Registry(), grant.Group, grant.Permission, value)
		case TypeNameProject:
			err = permissions.AddPermissionFor[Project](f.Registry(), grant.Group, grant.Permission, value)
		default:
			return fmt.Errorf("grant for group %q: unknown content type %q (known: %v)",
				grant.Group, grant.ContentType, TypeNames())
		}
		if err != nil {
			return fmt.Errorf("grant for group %q: %w", grant.Group, err)
		}
	}
	return nil
}

// globalResolver builds the global permission lookup from configured
// per-user grants. Unknown users resolve to no global permissions.
func globalResolver(grants []config.GlobalGrantConfig) func(auth.Subject) []permissions.GlobalPermission {
	byUser := make(map[string][]permissions.GlobalPermission, len(grants))
	for _, g := range grants {
		perms := byUser[g.User]
		for _, name := range g.Allow {
			perms = append(perms, permissions.GlobalPermission{Name: name, Value: permissions.Allow})
		}
		for _, name := range g.Deny {
			perms = append(perms, permissions.GlobalPermission{Name: name, Value: permissions.Deny})
		}
		byUser[g.User] = perms
	}

	return func(s auth.Subject) []permissions.GlobalPermission {
		return byUser[s.ID]
	}
}
