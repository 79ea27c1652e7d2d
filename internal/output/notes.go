package output

import (
	"fmt"
	"strings"

	"github.com/meganame/megacheck/internal/core"
)

func statusLabel(result *core.AvailabilityResult) string {
	if result == nil {
		return "unknown"
	}
	switch {
	case result.Phase == core.PhaseGrace:
		return "taken (grace)"
	case result.Phase == core.PhaseExpired:
		return "available (expired)"
	default:
		return string(result.Status)
	}
}

func priceLabel(result *core.AvailabilityResult) string {
	if result == nil || result.PriceUSDYear == 0 {
		return ""
	}
	return fmt.Sprintf("$%d/yr", result.PriceUSDYear)
}

// formatNotes builds the free-text column: failure detail, owner and expiry.
func formatNotes(result *core.AvailabilityResult) string {
	if result == nil {
		return ""
	}

	var parts []string
	if result.Detail != "" {
		parts = append(parts, result.Detail)
	}
	if result.Owner != "" {
		parts = append(parts, "owner "+shortAddress(result.Owner))
	}
	if result.ExpiresDate != "" {
		parts = append(parts, "expires "+result.ExpiresDate)
	}
	return strings.Join(parts, "; ")
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
