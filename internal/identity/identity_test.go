package identity

import (
	"context"
	"errors"
	"testing"

	"exam-prep-service/internal/domain"
)

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	if _, err := RequireAdmin(ctx); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	ctx = WithIdentity(context.Background(), domain.Identity{UID: "u1", Email: "a@example.com"})
	if _, err := RequireAdmin(ctx); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	ctx = WithIdentity(context.Background(), domain.Identity{UID: "u1", Admin: true})
	id, err := RequireAdmin(ctx)
	if err != nil || id.UID != "u1" {
		t.Fatalf("expected admin u1, got %+v %v", id, err)
	}
}

func TestFromContextIgnoresAnonymous(t *testing.T) {
	ctx := WithIdentity(context.Background(), domain.Identity{Email: "nobody@example.com"})
	if _, ok := FromContext(ctx); ok {
		t.Fatalf("identity without uid must not count as signed in")
	}
}

func TestAllowList(t *testing.T) {
	allow := NewAllowList([]string{" admin-1 ", ""}, []string{"Editor@Example.com"})

	if id := allow.Resolve("admin-1", ""); !id.Admin {
		t.Fatalf("uid match should grant admin")
	}
	if id := allow.Resolve("u2", "editor@example.COM"); !id.Admin {
		t.Fatalf("email match should be case-insensitive")
	}
	if id := allow.Resolve("u3", "other@example.com"); id.Admin {
		t.Fatalf("unexpected admin for u3")
	}
	if id := allow.Resolve("", "editor@example.com"); id.Admin {
		t.Fatalf("anonymous caller must not be admin")
	}
}
