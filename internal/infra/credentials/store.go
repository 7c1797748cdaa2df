package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aishortx/internal/infra"
	"aishortx/internal/sqlinline"
)

const (
	ProviderDashScope = "dashscope"
	ProviderGemini    = "gemini"
)

// Store reads and writes provider API keys. User-scoped keys take precedence
// over the global integration token.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the global integration token for provider, or "" when unset.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, normalizeProvider(provider))
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// UserToken returns the key a user stored for provider, or "" when unset.
func (s *Store) UserToken(ctx context.Context, userID, provider string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", nil
	}
	row := s.sql.QueryRow(ctx, sqlinline.QSelectUserProviderKey, userID, normalizeProvider(provider))
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Lookup resolves the effective key for userID: the user's own key first,
// then the global token.
func (s *Store) Lookup(ctx context.Context, userID, provider string) (string, error) {
	key, err := s.UserToken(ctx, userID, provider)
	if err != nil {
		return "", fmt.Errorf("user key: %w", err)
	}
	if key != "" {
		return key, nil
	}
	key, err = s.Token(ctx, provider)
	if err != nil {
		return "", fmt.Errorf("integration token: %w", err)
	}
	return key, nil
}

// SetToken stores the global key for provider.
func (s *Store) SetToken(ctx context.Context, provider, key string) error {
	provider = normalizeProvider(provider)
	key = strings.TrimSpace(key)
	if provider == "" {
		return errors.New("provider is required")
	}
	if key == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	return s.upsert(ctx, provider, key, nil)
}

// SetUserToken stores a user-scoped key for provider.
func (s *Store) SetUserToken(ctx context.Context, userID, provider, key string) error {
	provider = normalizeProvider(provider)
	key = strings.TrimSpace(key)
	if strings.TrimSpace(userID) == "" {
		return errors.New("user id is required")
	}
	if provider == "" {
		return errors.New("provider is required")
	}
	if key == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertUserProviderKey, userID, provider, key)
	return err
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
