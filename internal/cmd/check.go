package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meganame/megacheck/internal/core"
	"github.com/meganame/megacheck/internal/core/engine"
	"github.com/meganame/megacheck/internal/observability"
	"github.com/meganame/megacheck/internal/output"
)

var checkCmd = &cobra.Command{
	Use:   "check [names...]",
	Short: "Check .mega name availability",
	Long: `Check one or more .mega names against the MegaNames registry.

Names may be given as arguments (comma or space separated), read from a file
with --file (one or more per line, # comments allowed) or piped via --stdin.`,
	Example: `  megacheck check alpha beta,gamma
  megacheck check -f names.txt --output json
  cat names.txt | megacheck check --stdin --available-only`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("file", "f", "", "Read names from file (use - for stdin)")
	checkCmd.Flags().Bool("stdin", false, "Read names from stdin")
	checkCmd.Flags().StringP("output", "o", "table", "Output format: table, json, markdown, yaml")
	checkCmd.Flags().Bool("available-only", false, "Only show available names")
}

func runCheck(cmd *cobra.Command, args []string) error {
	namesFile, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	fromStdin, err := cmd.Flags().GetBool("stdin")
	if err != nil {
		return err
	}
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}
	availableOnly, err := cmd.Flags().GetBool("available-only")
	if err != nil {
		return err
	}

	names, err := resolveNames(args, namesFile, fromStdin, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Failed to connect to registry", err)
		return err
	}
	defer reg.Close()

	checker := engine.NewChecker(reg, cfg.CheckerConfig())
	resp, err := checkNames(ctx, cmd.OutOrStdout(), checker, names, format, availableOnly)
	if err != nil {
		return err
	}

	if registryDown(resp) {
		ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable,
			"Registry unavailable; no lookup succeeded", fmt.Errorf("%d lookups failed", resp.Summary.Error))
	}
	return nil
}

// checkNames runs one batch and renders it to w.
func checkNames(ctx context.Context, w io.Writer, checker *engine.Checker, names []string, format output.Format, availableOnly bool) (*core.BatchResponse, error) {
	startedAt := time.Now()

	resp, err := checker.CheckBatch(ctx, names)
	if err != nil {
		return nil, err
	}

	for _, result := range resp.Results {
		if result.Cause != nil {
			observability.CLILogger.Debug("Lookup failed",
				zap.String("label", result.Name),
				zap.Error(result.Cause))
		}
	}

	view := resp
	if availableOnly {
		view = output.FilterAvailable(resp)
	}

	rendered, err := output.NewFormatter(format).FormatBatch(view)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rendered) != "" {
		if _, err := fmt.Fprintln(w, rendered); err != nil {
			return nil, err
		}
	}

	observability.CLILogger.Debug("Batch complete",
		zap.Int("names", len(resp.Results)),
		zap.Int("available", resp.Summary.Available),
		zap.Int("errors", resp.Summary.Error),
		zap.Duration("elapsed", time.Since(startedAt)))
	return resp, nil
}

// registryDown reports whether every syntactically valid name failed lookup.
func registryDown(resp *core.BatchResponse) bool {
	if resp == nil || resp.Summary.Error == 0 {
		return false
	}
	return resp.Summary.Error == resp.Summary.Total-resp.Summary.Invalid
}
