package cmd

import (
	"context"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/meganame/megacheck/internal/errors"
	"github.com/meganame/megacheck/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify the configuration loads and the MegaNames registry answers over JSON-RPC.",
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		logger.Info("Running health check...")

		// Check 1: Version info available
		if versionInfo.Version == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		logger.Info("✅ Version information available", zap.String("version", versionInfo.Version))

		// Check 2: Configuration loaded
		cfg, err := loadedConfig()
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration not loaded", err)
			return
		}
		logger.Info("✅ Configuration loaded", zap.String("rpc_url", cfg.Registry.RPCURL))

		// Check 3: Registry reachable
		ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.Registry.Timeout)
		defer cancel()

		reg, err := openRegistry(ctx, cfg)
		if err != nil {
			ExitWithCode(logger, foundry.ExitExternalServiceUnavailable, "Registry connection failed", err)
			return
		}
		defer reg.Close()

		block, err := reg.BlockNumber(ctx)
		if err != nil {
			ExitWithCode(logger, foundry.ExitExternalServiceUnavailable, "Registry did not answer", err)
			return
		}
		logger.Info("✅ Registry reachable", zap.Uint64("block", block))

		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
