package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"aishortx/internal/sqlinline"
)

type stubExecutor struct {
	tokens map[string]string // query constant -> token
	err    error
	exec   struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if s.err != nil {
		return stubRow{err: s.err}
	}
	token, ok := s.tokens[query]
	if !ok {
		return stubRow{err: pgx.ErrNoRows}
	}
	return stubRow{token: token}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestToken(t *testing.T) {
	store := NewStore(&stubExecutor{tokens: map[string]string{sqlinline.QSelectIntegrationToken: " abc123 "}})
	key, err := store.Token(context.Background(), ProviderDashScope)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "abc123" {
		t.Fatalf("expected abc123, got %q", key)
	}
}

func TestToken_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	key, err := store.Token(context.Background(), ProviderGemini)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestLookupPrefersUserKey(t *testing.T) {
	store := NewStore(&stubExecutor{tokens: map[string]string{
		sqlinline.QSelectUserProviderKey:  "user-key",
		sqlinline.QSelectIntegrationToken: "global-key",
	}})
	key, err := store.Lookup(context.Background(), "user-1", ProviderDashScope)
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if key != "user-key" {
		t.Fatalf("expected user-key, got %q", key)
	}
}

func TestLookupFallsBackToGlobal(t *testing.T) {
	store := NewStore(&stubExecutor{tokens: map[string]string{
		sqlinline.QSelectIntegrationToken: "global-key",
	}})
	key, err := store.Lookup(context.Background(), "user-1", ProviderDashScope)
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if key != "global-key" {
		t.Fatalf("expected global-key, got %q", key)
	}
}

func TestLookupPropagatesErrors(t *testing.T) {
	store := NewStore(&stubExecutor{err: errors.New("connection reset")})
	if _, err := store.Lookup(context.Background(), "user-1", ProviderGemini); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetToken(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetToken(context.Background(), " Gemini ", "secret"); err != nil {
		t.Fatalf("SetToken error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != "gemini" {
		t.Fatalf("expected normalized provider, got %T %v", exec.exec.args[0], exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
}

func TestSetTokenEmpty(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetToken(context.Background(), ProviderGemini, " "); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestSetUserToken(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetUserToken(context.Background(), "user-1", ProviderDashScope, "k"); err != nil {
		t.Fatalf("SetUserToken error: %v", err)
	}
	if !strings.Contains(exec.exec.query, "user_provider_keys") {
		t.Fatalf("unexpected query %q", exec.exec.query)
	}
	if err := store.SetUserToken(context.Background(), "", ProviderDashScope, "k"); err == nil {
		t.Fatal("expected error for empty user")
	}
}
