package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	api "github.com/mind-engage/mindengage-qti/internal/api/http"
	"github.com/mind-engage/mindengage-qti/internal/config"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			var envFiles []string
			if f, _ := cmd.Flags().GetString("env"); f != "" {
				envFiles = append(envFiles, f)
			}
			cfg := config.Load(envFiles...)
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.HTTPAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return api.Run(ctx, cfg)
		},
	}
	cmd.Flags().String("env", "", "Load variables from this .env file first")
	cmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
	return cmd
}
