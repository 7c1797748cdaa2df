package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
	"aishortx/internal/providers"
)

// Provider is the minimum a registered backend exposes. It must also
// implement providers.ImageProvider, providers.VideoProvider or both.
type Provider interface {
	DefaultModel(t domain.TaskType) string
}

// CredentialSource looks up stored keys, user-scoped first.
type CredentialSource interface {
	Lookup(ctx context.Context, userID, provider string) (string, error)
}

// Resolution is a provider bound to the key and model a task should use.
type Resolution struct {
	ProviderID string
	ModelValue string
	APIKey     string
	Image      providers.ImageProvider
	Video      providers.VideoProvider
}

// Querier returns the polling capability for the resolved task type.
func (r *Resolution) Querier() (providers.Querier, bool) {
	if r.Video != nil {
		return r.Video, true
	}
	q, ok := r.Image.(providers.Querier)
	return q, ok
}

// Options configures a Registry.
type Options struct {
	Credentials          CredentialSource
	EnvKeys              map[string]string
	DefaultImageProvider string
	DefaultVideoProvider string
	CacheTTL             time.Duration
	Logger               infra.Logger
}

// Registry maps provider ids to clients and resolves their credentials.
// It is built once at startup and shared by the launcher and the sweep.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	defaults  map[domain.TaskType]string
	envKeys   map[string]string
	creds     CredentialSource
	cache     *ristretto.Cache[string, string]
	ttl       time.Duration
	logger    infra.Logger
}

func New(opts Options) (*Registry, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("credential cache: %w", err)
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	envKeys := make(map[string]string, len(opts.EnvKeys))
	for id, key := range opts.EnvKeys {
		envKeys[normalize(id)] = strings.TrimSpace(key)
	}
	return &Registry{
		providers: map[string]Provider{},
		defaults: map[domain.TaskType]string{
			domain.TaskTypeImage: normalize(opts.DefaultImageProvider),
			domain.TaskTypeVideo: normalize(opts.DefaultVideoProvider),
		},
		envKeys: envKeys,
		creds:   opts.Credentials,
		cache:   cache,
		ttl:     ttl,
		logger:  opts.Logger.With().Str("component", "registry").Logger(),
	}, nil
}

// Register adds or replaces the provider under id.
func (r *Registry) Register(id string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[normalize(id)] = p
}

// Resolve picks the provider, model and key for a task. An empty providerID
// selects the default for t; an empty model selects the provider's default.
func (r *Registry) Resolve(ctx context.Context, userID string, t domain.TaskType, model, providerID string) (*Resolution, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("resolve: task type %q: %w", t, domain.ErrInvalidTask)
	}
	id := normalize(providerID)
	if id == "" {
		id = r.defaults[t]
	}
	r.mu.RLock()
	p, ok := r.providers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("resolve: provider %q: %w", id, domain.ErrProviderNotConfigured)
	}

	res := &Resolution{ProviderID: id, ModelValue: strings.TrimSpace(model)}
	switch t {
	case domain.TaskTypeImage:
		img, ok := p.(providers.ImageProvider)
		if !ok {
			return nil, fmt.Errorf("resolve: provider %q cannot generate images: %w", id, domain.ErrCapabilityMissing)
		}
		res.Image = img
	case domain.TaskTypeVideo:
		vid, ok := p.(providers.VideoProvider)
		if !ok {
			return nil, fmt.Errorf("resolve: provider %q cannot generate videos: %w", id, domain.ErrCapabilityMissing)
		}
		res.Video = vid
	}
	if res.ModelValue == "" {
		res.ModelValue = p.DefaultModel(t)
	}

	key, err := r.apiKey(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	res.APIKey = key
	return res, nil
}

// Invalidate drops the cached key for userID and provider. An empty userID
// targets the global key.
func (r *Registry) Invalidate(userID, providerID string) {
	r.cache.Del(cacheKey(userID, normalize(providerID)))
}

// Close releases the credential cache.
func (r *Registry) Close() {
	r.cache.Close()
}

func (r *Registry) apiKey(ctx context.Context, userID, id string) (string, error) {
	ck := cacheKey(userID, id)
	if key, ok := r.cache.Get(ck); ok {
		return key, nil
	}
	var key string
	if r.creds != nil {
		stored, err := r.creds.Lookup(ctx, userID, id)
		if err != nil {
			return "", fmt.Errorf("resolve: credentials for %q: %w", id, err)
		}
		key = strings.TrimSpace(stored)
	}
	if key == "" {
		key = r.envKeys[id]
	}
	if key == "" {
		return "", fmt.Errorf("resolve: no api key for %q: %w", id, domain.ErrProviderNotConfigured)
	}
	r.cache.SetWithTTL(ck, key, int64(len(key)), r.ttl)
	r.cache.Wait()
	r.logger.Debug().Str("provider", id).Bool("user_scoped", userID != "").Msg("credential cached")
	return key, nil
}

func cacheKey(userID, id string) string {
	return strings.TrimSpace(userID) + "|" + id
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
