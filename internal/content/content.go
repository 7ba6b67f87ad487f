// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

// Package content defines the content schemas the Gatewarden server
// evaluates permissions over, the relational groups bound to them, and
// the translation between wire-level JSON items and typed values.
//
// Group membership predicates are code. The policy configuration
// supplies only data: which permission verdicts each group carries and
// which global grants individual users hold.
package content

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/goccy/go-json"
)

// Post is a piece of authored content moving through an editorial
// workflow.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Body      string `json:"body,omitempty"`
	Submitter string `json:"submitter"`
	Editor    string `json:"editor,omitempty"`
	Published bool   `json:"published,omitempty"`
}

// ContentID returns the post's identifier.
func (p Post) ContentID() string { return p.ID }

// Project is a collaborative container with an owner and members.
type Project struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Owner   string   `json:"owner"`
	Members []string `json:"members,omitempty"`
}

// ContentID returns the project's identifier.
func (p Project) ContentID() string { return p.ID }

// Identifiable is implemented by every content schema.
type Identifiable interface {
	ContentID() string
}

// TypeNamePost and TypeNameProject are the wire names API requests use
// to select a content schema.
const (
	TypeNamePost    = "post"
	TypeNameProject = "project"
)

var typesByName = map[string]reflect.Type{
	TypeNamePost:    reflect.TypeOf(Post{}),
	TypeNameProject: reflect.TypeOf(Project{}),
}

// TypeByName resolves a wire-level content type name to its Go type.
func TypeByName(name string) (reflect.Type, error) {
	t, ok := typesByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown content type %q (known: %v)", name, TypeNames())
	}
	return t, nil
}

// NameOf returns the wire name of a registered content type, or the
// Go type string for unregistered types.
func NameOf(t reflect.Type) string {
	for name, registered := range typesByName {
		if registered == t {
			return name
		}
	}
	return t.String()
}

// TypeNames lists the registered wire names in sorted order.
func TypeNames() []string {
	names := make([]string, 0, len(typesByName))
	for name := range typesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeItem unmarshals one raw JSON item into the named schema.
func DecodeItem(typeName string, raw json.RawMessage) (Identifiable, error) {
	switch typeName {
	case TypeNamePost:
		var p Post
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding post: %w", err)
		}
		return p, nil
	case TypeNameProject:
		var p Project
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding project: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown content type %q (known: %v)", typeName, TypeNames())
	}
}

// DecodeItems unmarshals a batch of raw JSON items into the named
// schema, preserving order.
func DecodeItems(typeName string, raw []json.RawMessage) ([]Identifiable, error) {
	items := make([]Identifiable, 0, len(raw))
	for i, r := range raw {
		item, err := DecodeItem(typeName, r)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}
