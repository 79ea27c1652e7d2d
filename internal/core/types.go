package core

import "time"

// Status is the availability verdict for a single candidate.
type Status string

const (
	StatusAvailable Status = "available"
	StatusTaken     Status = "taken"
	StatusInvalid   Status = "invalid"
	StatusError     Status = "error"
)

// Phase describes where a registered name sits in its lifecycle.
type Phase string

const (
	PhaseActive  Phase = "active"
	PhaseGrace   Phase = "grace"
	PhaseExpired Phase = "expired"
)

// GracePeriod is how long an expired name stays reserved for its previous owner.
const GracePeriod = 90 * 24 * time.Hour

// Suffix is the top-level name every label lives under.
const Suffix = ".mega"

// AvailabilityResult reports the outcome for one position of a batch.
type AvailabilityResult struct {
	Name         string `json:"name" yaml:"name"`
	Display      string `json:"display" yaml:"display"`
	Status       Status `json:"status" yaml:"status"`
	Detail       string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Phase        Phase  `json:"phase,omitempty" yaml:"phase,omitempty"`
	Owner        string `json:"owner,omitempty" yaml:"owner,omitempty"`
	ExpiresUnix  int64  `json:"expires_unix,omitempty" yaml:"expires_unix,omitempty"`
	ExpiresDate  string `json:"expires_date,omitempty" yaml:"expires_date,omitempty"`
	TokenID      string `json:"token_id,omitempty" yaml:"token_id,omitempty"`
	PriceUSDYear int    `json:"price_usd_year,omitempty" yaml:"price_usd_year,omitempty"`
	Length       int    `json:"length" yaml:"length"`

	// Cause keeps the underlying failure for logs; it never reaches callers.
	Cause error `json:"-" yaml:"-"`
}

// Available reports whether the name can be registered now.
func (r *AvailabilityResult) Available() bool {
	return r != nil && r.Status == StatusAvailable
}

// Summary aggregates the statuses of a batch.
type Summary struct {
	Total          int     `json:"total" yaml:"total"`
	Available      int     `json:"available" yaml:"available"`
	Taken          int     `json:"taken" yaml:"taken"`
	Invalid        int     `json:"invalid" yaml:"invalid"`
	Error          int     `json:"error" yaml:"error"`
	TotalCostYear  int     `json:"total_cost_year" yaml:"total_cost_year"`
	ElapsedSeconds float64 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// BatchResponse is the full answer to a batch request, in input order.
type BatchResponse struct {
	Results []*AvailabilityResult `json:"results" yaml:"results"`
	Summary Summary               `json:"summary" yaml:"summary"`
}

// Summarize counts statuses and sums the yearly cost of available names.
func Summarize(results []*AvailabilityResult, elapsed time.Duration) Summary {
	summary := Summary{Total: len(results)}
	for _, r := range results {
		if r == nil {
			continue
		}
		switch r.Status {
		case StatusAvailable:
			summary.Available++
			summary.TotalCostYear += r.PriceUSDYear
		case StatusTaken:
			summary.Taken++
		case StatusInvalid:
			summary.Invalid++
		case StatusError:
			summary.Error++
		}
	}
	summary.ElapsedSeconds = float64(elapsed.Round(10*time.Millisecond).Milliseconds()) / 1000
	return summary
}

// Record is what the registry knows about a label.
type Record struct {
	Label      string
	Registered bool
	ExpiresAt  time.Time
	Owner      string
	TokenID    string
}

// PhaseAt classifies a registered record relative to now. A zero ExpiresAt
// never expires.
func (r Record) PhaseAt(now time.Time) Phase {
	if !r.Registered {
		return ""
	}
	if r.ExpiresAt.IsZero() || !now.After(r.ExpiresAt) {
		return PhaseActive
	}
	if !now.After(r.ExpiresAt.Add(GracePeriod)) {
		return PhaseGrace
	}
	return PhaseExpired
}
