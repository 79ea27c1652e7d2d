package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meganame/megacheck/internal/core/engine"
	"github.com/meganame/megacheck/internal/core/namegen"
	"github.com/meganame/megacheck/internal/output"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate random candidate names",
	Long: `Generate random, pronounceable candidate labels.

Patterns:
  words      adjective + noun (boldfox)
  syllables  consonant-vowel syllables (kamora)
  mixed      word followed by digits (star42)

Use --check to look the generated names up immediately.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntP("count", "n", namegen.DefaultCount, fmt.Sprintf("Number of names (1-%d)", namegen.MaxCount))
	generateCmd.Flags().StringP("pattern", "p", string(namegen.PatternWords), "Pattern: words, syllables, mixed")
	generateCmd.Flags().Int("min", 0, "Minimum length (default 3)")
	generateCmd.Flags().Int("max", 0, "Maximum length (default 16)")
	generateCmd.Flags().String("separator", "", `Word separator: "" or "-"`)
	generateCmd.Flags().Bool("check", false, "Check availability of the generated names")
	generateCmd.Flags().StringP("output", "o", "table", "Output format with --check: table, json, markdown, yaml")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	patternValue, _ := cmd.Flags().GetString("pattern")
	minLength, _ := cmd.Flags().GetInt("min")
	maxLength, _ := cmd.Flags().GetInt("max")
	separator, _ := cmd.Flags().GetString("separator")
	check, _ := cmd.Flags().GetBool("check")
	formatValue, _ := cmd.Flags().GetString("output")

	pattern, err := namegen.ParsePattern(patternValue)
	if err != nil {
		return err
	}

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	names, err := namegen.Generate(namegen.Options{
		Count:     count,
		Pattern:   pattern,
		MinLength: minLength,
		MaxLength: maxLength,
		Separator: separator,
		Rules:     cfg.LabelRules(),
	})
	if err != nil {
		return err
	}

	if !check {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		return err
	}

	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	_, err = checkNames(ctx, cmd.OutOrStdout(), engine.NewChecker(reg, cfg.CheckerConfig()), names, format, false)
	return err
}
