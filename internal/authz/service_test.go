// Gatewarden - Relational Content Permission Engine
// Copyright 2026 L. Marsh (ljmarsh)
// SPDX-License-Identifier: Apache-2.0
// https://github.com/ljmarsh/gatewarden

package authz

import (
	"context"
	"testing"
	"time"

	"github.com/ljmarsh/gatewarden/internal/auth"
	"github.com/ljmarsh/gatewarden/internal/config"
	"github.com/ljmarsh/gatewarden/internal/content"
)

func newTestService(t *testing.T, cacheEnabled bool) *Service {
	t.Helper()

	filter, err := content.BuildFilter(config.PolicyConfig{
		Grants: []config.GrantConfig{
			{Group: content.GroupSubmitter, ContentType: content.TypeNamePost, Permission: "view", Value: "allow"},
			{Group: content.GroupEditor, ContentType: content.TypeNamePost, Permission: "edit", Value: "allow"},
			{Group: content.GroupEditor, ContentType: content.TypeNamePost, Permission: "view", Value: "allow"},
			{Group: content.GroupOwner, ContentType: content.TypeNameProject, Permission: "manage", Value: "allow"},
		},
		GlobalGrants: []config.GlobalGrantConfig{
			{User: "admin", Allow: []string{"view", "edit", "manage"}},
		},
	})
	if err != nil {
		t.Fatalf("BuildFilter() error = %v", err)
	}

	svc, err := NewService(filter, &ServiceConfig{
		CacheEnabled: cacheEnabled,
		CacheTTL:     time.Minute,
		Audit:        &AuditLoggerConfig{Enabled: false},
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestNewServiceRequiresFilter(t *testing.T) {
	if _, err := NewService(nil, nil); err != ErrNilFilter {
		t.Errorf("NewService(nil) = %v, want ErrNilFilter", err)
	}
}

func TestServiceCheck(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()
	post := content.Post{ID: "p1", Submitter: "1", Editor: "2"}

	tests := []struct {
		name       string
		user       string
		permission string
		want       bool
	}{
		{"submitter views", "1", "view", true},
		{"submitter cannot edit", "1", "edit", false},
		{"editor edits", "2", "edit", true},
		{"stranger denied", "9", "view", false},
		{"admin global allow", "admin", "edit", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Check(ctx, auth.Subject{ID: tt.user}, post, tt.permission)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Check(%s, %s) = %v, want %v", tt.user, tt.permission, got, tt.want)
			}
		})
	}
}

func TestServiceCheckCaches(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()
	post := content.Post{ID: "p1", Submitter: "1"}
	subject := auth.Subject{ID: "1"}

	first, err := svc.Check(ctx, subject, post, "view")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Check(ctx, subject, post, "view")
	if err != nil {
		t.Fatal(err)
	}
	if first != second || !first {
		t.Errorf("cached decision diverged: first=%v second=%v", first, second)
	}
	if svc.cache.len() == 0 {
		t.Error("decision was not cached")
	}

	svc.InvalidateUser("1")
	if svc.cache.len() != 0 {
		t.Errorf("cache len after invalidation = %d, want 0", svc.cache.len())
	}
}

func TestServiceCheckGlobal(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	if !svc.CheckGlobal(ctx, auth.Subject{ID: "admin"}, "manage") {
		t.Error("CheckGlobal(admin, manage) = false, want true")
	}
	if svc.CheckGlobal(ctx, auth.Subject{ID: "1"}, "manage") {
		t.Error("CheckGlobal(1, manage) = true, want false")
	}
}

func TestServiceFilterItems(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	items := []content.Identifiable{
		content.Post{ID: "p1", Submitter: "1"},
		content.Post{ID: "p2", Submitter: "2", Editor: "1"},
		content.Post{ID: "p3", Submitter: "3"},
	}

	got, err := svc.FilterItems(ctx, auth.Subject{ID: "1"}, content.TypeNamePost, items, "view")
	if err != nil {
		t.Fatalf("FilterItems() error = %v", err)
	}
	want := []string{"p1", "p2"}
	if len(got) != len(want) {
		t.Fatalf("FilterItems() returned %d items, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ContentID() != id {
			t.Errorf("item %d = %q, want %q", i, got[i].ContentID(), id)
		}
	}
}

func TestServiceIsMember(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()
	project := content.Project{ID: "pr1", Owner: "1", Members: []string{"2"}}

	if member, err := svc.IsMember(ctx, auth.Subject{ID: "1"}, project, content.GroupOwner); err != nil || !member {
		t.Errorf("IsMember(owner, 1) = (%v, %v), want true", member, err)
	}
	if member, err := svc.IsMember(ctx, auth.Subject{ID: "2"}, project, content.GroupOwner); err != nil || member {
		t.Errorf("IsMember(owner, 2) = (%v, %v), want false", member, err)
	}
	if _, err := svc.IsMember(ctx, auth.Subject{ID: "1"}, project, "wizards"); err == nil {
		t.Error("IsMember(unknown group) = nil error, want error")
	}
}

func TestServiceExplain(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()
	post := content.Post{ID: "p1", Submitter: "1"}

	trace, err := svc.Explain(ctx, auth.Subject{ID: "1"}, post, "view")
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if !trace.Allowed {
		t.Error("trace.Allowed = false, want true")
	}
	if len(trace.MatchedAllow) == 0 {
		t.Error("trace.MatchedAllow empty, want submitter group")
	}
}
