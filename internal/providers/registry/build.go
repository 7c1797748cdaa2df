package registry

import (
	"aishortx/internal/infra"
	"aishortx/internal/infra/credentials"
	"aishortx/internal/providers/dashscope"
	"aishortx/internal/providers/genai"
)

// NewFromConfig registers the DashScope and Gemini backends described by cfg.
func NewFromConfig(cfg *infra.Config, creds CredentialSource, blobs genai.BlobStore, logger infra.Logger) (*Registry, error) {
	reg, err := New(Options{
		Credentials: creds,
		EnvKeys: map[string]string{
			credentials.ProviderDashScope: cfg.DashScope.APIKey,
			credentials.ProviderGemini:    cfg.Gemini.APIKey,
		},
		DefaultImageProvider: cfg.DefaultImageProvider,
		DefaultVideoProvider: cfg.DefaultVideoProvider,
		CacheTTL:             cfg.CredentialCacheTTL,
		Logger:               logger,
	})
	if err != nil {
		return nil, err
	}

	dsLogger := logger.With().Str("provider", credentials.ProviderDashScope).Logger()
	reg.Register(credentials.ProviderDashScope, dashscope.NewClient(dashscope.Options{
		BaseURL:    cfg.DashScope.BaseURL,
		ImageModel: cfg.DashScope.ImageModel,
		VideoModel: cfg.DashScope.VideoModel,
		Logger:     &dsLogger,
	}))

	gLogger := logger.With().Str("provider", credentials.ProviderGemini).Logger()
	reg.Register(credentials.ProviderGemini, genai.NewClient(genai.Options{
		BaseURL:    cfg.Gemini.BaseURL,
		ImageModel: cfg.Gemini.ImageModel,
		VideoModel: cfg.Gemini.VideoModel,
		Store:      blobs,
		Logger:     &gLogger,
	}))
	return reg, nil
}
