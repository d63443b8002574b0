package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/anonto42/faith-connect/functions/internal/app"
	"github.com/anonto42/faith-connect/functions/pkg/config"
	"github.com/anonto42/faith-connect/functions/pkg/logger"
	"github.com/spf13/cobra"
)

// bootFunc builds the services a command runs against
type bootFunc func(ctx context.Context) (*app.App, error)

func newRootCmd(boot bootFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pushctl",
		Short:         "Operate FaithConnect push notifications",
		Long:          "pushctl runs the push notification operations by hand: dispatch a stored request, sweep old requests, or broadcast to a topic.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newDispatchCmd(boot))
	cmd.AddCommand(newSweepCmd(boot))
	cmd.AddCommand(newBroadcastCmd(boot))
	return cmd
}

// Execute runs pushctl against the environment's configuration
func Execute() error {
	return newRootCmd(bootFromEnv).Execute()
}

func bootFromEnv(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	zl, err := logger.New(cfg.Env)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, zl)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
