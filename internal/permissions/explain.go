// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package permissions

import "reflect"

// Trace is the full evaluation record for one item. It names the global
// verdict and every group whose predicate matched the item, on both the
// allow and the deny side, so callers can see why a decision came out
// the way it did. An "allow" decision with an empty MatchedAllow list
// means the global resolver granted it; a "deny" with empty MatchedDeny
// means no allow path matched (default deny).
type Trace struct {
	Permission  string       `json:"permission"`
	ContentType reflect.Type `json:"-"`
	Global      Value        `json:"global"`

	// MatchedAllow lists the allow groups whose predicate matched the
	// item, in registration order.
	MatchedAllow []string `json:"matched_allow,omitempty"`

	// MatchedDeny lists the deny groups whose predicate matched the
	// item, in registration order.
	MatchedDeny []string `json:"matched_deny,omitempty"`

	// Allowed is the final decision.
	Allowed bool `json:"allowed"`
}

// Explain evaluates the permission against a single item and returns the
// complete trace. The decision in Trace.Allowed always agrees with Test
// for the same arguments; Explain additionally evaluates every group
// instead of short-circuiting, so the matched lists are exhaustive.
func (f *Filter[U]) Explain(item any, permission string, user U) (*Trace, error) {
	folded := fold(permission)
	contentType := reflect.TypeOf(item)
	trace := &Trace{
		Permission:  permission,
		ContentType: contentType,
		Global:      f.globalVerdict(folded, user),
	}

	userKey := f.userKey(user)
	allowed := trace.Global == Allow
	denied := trace.Global == Deny

	for _, g := range f.registry.groupsFor(contentType, folded) {
		verdict := g.value(folded)
		if verdict == Inherit {
			continue
		}
		matched, err := g.Match(item, userKey)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		switch verdict {
		case Allow:
			trace.MatchedAllow = append(trace.MatchedAllow, g.Name())
			allowed = true
		case Deny:
			trace.MatchedDeny = append(trace.MatchedDeny, g.Name())
			denied = true
		}
	}

	trace.Allowed = allowed && !denied
	return trace, nil
}
