package utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUserContext(t *testing.T) {
	userID := uuid.New()
	ctx := SetUserContext(context.Background(), userID, "mechanic")

	gotID, ok := GetUserIDFromContext(ctx)
	if !ok || gotID != userID {
		t.Fatalf("expected %s, got %s (ok=%v)", userID, gotID, ok)
	}
	role, ok := GetRoleFromContext(ctx)
	if !ok || role != "mechanic" {
		t.Fatalf("expected mechanic, got %q (ok=%v)", role, ok)
	}
}

func TestUserContext_Anonymous(t *testing.T) {
	if _, ok := GetUserIDFromContext(context.Background()); ok {
		t.Fatal("empty context must not carry a caller")
	}

	ctx := SetUserContext(context.Background(), uuid.Nil, "admin")
	if _, ok := GetUserIDFromContext(ctx); ok {
		t.Fatal("nil user id must not be stored")
	}
	if _, ok := GetRoleFromContext(ctx); ok {
		t.Fatal("role must not leak without a user")
	}
}

func TestUserContext_NoRole(t *testing.T) {
	ctx := SetUserContext(context.Background(), uuid.New(), "")
	if _, ok := GetUserIDFromContext(ctx); !ok {
		t.Fatal("expected user id")
	}
	if _, ok := GetRoleFromContext(ctx); ok {
		t.Fatal("empty role must report false")
	}
}
