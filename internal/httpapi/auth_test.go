package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"warungpos/backend/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	stub := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      "admin",
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}

	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, stub)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login with legacy password failed: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected access token")
	}

	stub.mu.Lock()
	stored := stub.users["admin"].Password
	updates := stub.updates
	stub.mu.Unlock()
	if !strings.HasPrefix(stored, "$2") {
		t.Fatalf("expected stored password upgraded to bcrypt, got %q", stored)
	}
	if updates == 0 {
		t.Fatalf("expected password upgrade to be written back to the store")
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, nil)

	token, err := auth.sign("kasir1", "cashier", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	actor, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if actor.Username != "kasir1" || actor.Role != "cashier" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	issuer := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, nil)
	verifier := NewAuthManager("ffffffffffffffffffffffffffffffff", time.Hour, nil)

	token, err := issuer.sign("admin", "admin", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, nil)

	token, err := auth.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestCreateCashierValidation(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, &userStoreStub{})

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "secret123"},
		{"username with space", "kasir satu", "secret123"},
		{"short password", "kasir1", "abc"},
	}
	for _, tc := range cases {
		if _, err := auth.CreateCashier(domain.CashierCreateRequest{Username: tc.username, Password: tc.password}); err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
	}

	created, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "kasir1", Password: "secret123"})
	if err != nil {
		t.Fatalf("valid cashier rejected: %v", err)
	}
	if created.Role != "cashier" || !created.Active {
		t.Fatalf("unexpected cashier: %+v", created)
	}

	if _, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "kasir1", Password: "secret123"}); err == nil {
		t.Fatalf("expected duplicate username to be rejected")
	}
}
