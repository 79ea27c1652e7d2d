package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meganame/megacheck/internal/core"
)

var priceCmd = &cobra.Command{
	Use:   "price <name>",
	Short: "Show the registration price of a .mega name",
	Long:  "Show the yearly and total registration price of a .mega name. Price depends only on label length.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().IntP("years", "y", 1, fmt.Sprintf("Registration period in years (1-%d)", core.MaxQuoteYears))
	priceCmd.Flags().Bool("json", false, "Output JSON")
}

func runPrice(cmd *cobra.Command, args []string) error {
	years, err := cmd.Flags().GetInt("years")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	quote, err := core.NewQuote(cfg.LabelRules(), args[0], years)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(quote)
	}

	_, err = fmt.Fprintf(out, "%s (%d chars): $%d/yr, $%d for %d year(s)\n",
		quote.Display, quote.Length, quote.PriceUSDYear, quote.TotalUSD, quote.Years)
	return err
}
