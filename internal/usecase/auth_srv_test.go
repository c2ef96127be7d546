package usecase

import (
	"context"
	"errors"
	"testing"

	"roadside-assist/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestAuthenticate(t *testing.T) {
	f := newFixture()
	token := uuid.New()
	f.store.sessions[token] = &entity.Session{UserID: f.owner.ID, Token: token}

	inactive := &entity.User{Base: entity.Base{ID: uuid.New()}, Role: entity.RoleUser}
	f.store.users[inactive.ID] = inactive
	inactiveToken := uuid.New()
	f.store.sessions[inactiveToken] = &entity.Session{UserID: inactive.ID, Token: inactiveToken}

	svc := NewAuthService(f.repo, zap.NewNop())

	actor, err := svc.Authenticate(context.Background(), token.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.UserID != f.owner.ID || actor.Role != entity.RoleGarage {
		t.Fatalf("unexpected actor %+v", actor)
	}

	for name, tok := range map[string]string{
		"malformed": "not-a-uuid",
		"unknown":   uuid.NewString(),
		"inactive":  inactiveToken.String(),
	} {
		if _, err := svc.Authenticate(context.Background(), tok); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}
}
