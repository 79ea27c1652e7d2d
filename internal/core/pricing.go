package core

import "fmt"

// Annual registration price in USD by label length. Labels of five or more
// characters cost DefaultPriceUSD.
var pricingByLength = map[int]int{
	1: 1000,
	2: 500,
	3: 100,
	4: 10,
}

// DefaultPriceUSD is the yearly price for labels longer than four characters.
const DefaultPriceUSD = 1

// MaxQuoteYears bounds multi-year quotes.
const MaxQuoteYears = 10

// PriceUSD returns the yearly price for a label of the given length.
func PriceUSD(length int) int {
	if price, ok := pricingByLength[length]; ok {
		return price
	}
	return DefaultPriceUSD
}

// Quote is a multi-year price calculation for one label.
type Quote struct {
	Label        string `json:"label" yaml:"label"`
	Display      string `json:"display" yaml:"display"`
	Length       int    `json:"length" yaml:"length"`
	PriceUSDYear int    `json:"price_usd_year" yaml:"price_usd_year"`
	Years        int    `json:"years" yaml:"years"`
	TotalUSD     int    `json:"total_usd" yaml:"total_usd"`
}

// NewQuote prices label for the given number of years.
func NewQuote(rules LabelRules, raw string, years int) (*Quote, error) {
	label, reason := rules.Validate(raw)
	if reason != "" {
		return nil, fmt.Errorf("invalid name %q: %s", raw, reason)
	}
	if years < 1 || years > MaxQuoteYears {
		return nil, fmt.Errorf("years must be between 1 and %d", MaxQuoteYears)
	}

	price := PriceUSD(len(label))
	return &Quote{
		Label:        label,
		Display:      label + Suffix,
		Length:       len(label),
		PriceUSDYear: price,
		Years:        years,
		TotalUSD:     price * years,
	}, nil
}
