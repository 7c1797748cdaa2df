// Package cli implements dramactl, the operator command line for the
// generation orchestrator.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"aishortx/internal/bootstrap"
	"aishortx/internal/infra"
)

// NewRootCmd builds the dramactl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dramactl",
		Short:         "Operate the generation orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newCredentialsCmd(), newSweepCmd(), newTaskCmd())
	return root
}

// Execute runs the root command. Called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*infra.Config, error) {
	_ = godotenv.Load()
	return infra.LoadConfig()
}

// openRuntime loads configuration and assembles the orchestrator. Logs go to
// stderr so command output stays clean.
func openRuntime(ctx context.Context) (*bootstrap.Runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := infra.NewLogger(cfg.AppEnv, "dramactl").Output(os.Stderr)
	return bootstrap.Open(ctx, cfg, logger)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
