package registry

import (
	"context"
	"sync"

	"github.com/meganame/megacheck/internal/core"
)

// Static is an in-memory registry with a fixed label -> record mapping.
// Labels missing from the map are unregistered. Errors can be injected per
// label or for every call.
type Static struct {
	Records map[string]core.Record
	Errors  map[string]error
	// Err, when set, fails every lookup.
	Err error

	mu    sync.Mutex
	calls map[string]int
}

// NewStatic builds a static registry where every listed label is registered.
func NewStatic(taken ...string) *Static {
	records := make(map[string]core.Record, len(taken))
	for _, label := range taken {
		records[label] = core.Record{Label: label, Registered: true, TokenID: TokenIDHex(TokenID(label))}
	}
	return &Static{Records: records}
}

// Lookup returns the configured record or error for label.
func (s *Static) Lookup(ctx context.Context, label string) (core.Record, error) {
	s.count(label)

	if err := ctx.Err(); err != nil {
		return core.Record{Label: label}, Classify(err)
	}
	if s.Err != nil {
		return core.Record{Label: label}, s.Err
	}
	if err, ok := s.Errors[label]; ok && err != nil {
		return core.Record{Label: label}, err
	}
	if record, ok := s.Records[label]; ok {
		record.Label = label
		return record, nil
	}
	return core.Record{Label: label, TokenID: TokenIDHex(TokenID(label))}, nil
}

// Calls reports how many times label was looked up.
func (s *Static) Calls(label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[label]
}

// TotalCalls reports the number of lookups across all labels.
func (s *Static) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *Static) count(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[label]++
}
