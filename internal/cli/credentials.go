package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aishortx/internal/infra/credentials"
)

var knownProviders = []string{credentials.ProviderDashScope, credentials.ProviderGemini}

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage provider API keys",
	}

	var provider, key, user string
	set := &cobra.Command{
		Use:   "set",
		Short: "Store a provider API key, globally or for one user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider = strings.ToLower(strings.TrimSpace(provider))
			if err := checkProvider(provider); err != nil {
				return err
			}
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("--key must not be empty")
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if user == "" {
				err = rt.Credentials.SetToken(cmd.Context(), provider, key)
			} else {
				err = rt.Credentials.SetUserToken(cmd.Context(), user, provider, key)
			}
			if err != nil {
				return fmt.Errorf("store %s key: %w", provider, err)
			}
			rt.Registry.Invalidate(user, provider)

			scope := "global"
			if user != "" {
				scope = "user " + user
			}
			fmt.Fprintf(out(cmd), "stored %s key (%s)\n", provider, scope)
			return nil
		},
	}
	set.Flags().StringVar(&provider, "provider", "", "provider id ("+strings.Join(knownProviders, ", ")+")")
	set.Flags().StringVar(&key, "key", "", "API key")
	set.Flags().StringVar(&user, "user", "", "store the key for this user only")
	_ = set.MarkFlagRequired("provider")
	_ = set.MarkFlagRequired("key")

	cmd.AddCommand(set)
	return cmd
}

func checkProvider(provider string) error {
	for _, p := range knownProviders {
		if p == provider {
			return nil
		}
	}
	return fmt.Errorf("unknown provider %q (want one of %s)", provider, strings.Join(knownProviders, ", "))
}
