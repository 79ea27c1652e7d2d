package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meganame/megacheck/internal/core"
	"github.com/meganame/megacheck/internal/core/registry"
	"github.com/meganame/megacheck/internal/metrics"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxBatch    = 500
	DefaultConcurrency = 10
	DefaultBatchSize   = 80
	DefaultTimeout     = 10 * time.Second
)

var (
	// ErrEmptyBatch is returned when no names were supplied.
	ErrEmptyBatch = errors.New("no names provided")
	// ErrBatchTooLarge is returned when the batch exceeds MaxBatch.
	ErrBatchTooLarge = errors.New("too many names")

	errLookupPanic = errors.New("lookup panicked")
)

// Config controls batch limits and outbound fan-out.
type Config struct {
	MaxBatch    int
	Concurrency int
	// BatchSize is the number of labels per multicall. Values below 2 disable
	// batching even when the registry supports it.
	BatchSize int
	Timeout   time.Duration
	Rules     core.LabelRules
}

// Checker resolves batches of candidate names against a registry.
type Checker struct {
	Registry registry.Registry
	Config   Config
	Clock    func() time.Time
}

// NewChecker wires a checker with explicit configuration.
func NewChecker(reg registry.Registry, cfg Config) *Checker {
	return &Checker{Registry: reg, Config: cfg}
}

type outcome struct {
	record core.Record
	err    error
}

// Check validates every name and queries the registry for the valid ones.
// The returned slice has one entry per input, in input order. Lookup failures
// are reported per entry; only batch-level validation returns an error.
func (c *Checker) Check(ctx context.Context, names []string) ([]*core.AvailabilityResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(names) == 0 {
		return nil, ErrEmptyBatch
	}
	if maxBatch := c.maxBatch(); len(names) > maxBatch {
		return nil, fmt.Errorf("%w: got %d, maximum is %d per request", ErrBatchTooLarge, len(names), maxBatch)
	}

	startedAt := time.Now()
	rules := c.Config.Rules
	results := make([]*core.AvailabilityResult, len(names))
	positions := make(map[string][]int)
	labels := make([]string, 0, len(names))

	for i, raw := range names {
		label, reason := rules.Validate(raw)
		if reason != "" {
			results[i] = invalidResult(raw, label, reason)
			continue
		}
		if _, seen := positions[label]; !seen {
			labels = append(labels, label)
		}
		positions[label] = append(positions[label], i)
	}

	outcomes := c.resolve(ctx, labels)
	now := c.now()
	for j, label := range labels {
		for _, i := range positions[label] {
			results[i] = buildResult(label, outcomes[j], now)
		}
	}

	for _, r := range results {
		metrics.RecordLookup(string(r.Status))
	}
	metrics.RecordBatch(len(names), time.Since(startedAt))

	return results, nil
}

// CheckBatch runs Check and attaches the summary.
func (c *Checker) CheckBatch(ctx context.Context, names []string) (*core.BatchResponse, error) {
	startedAt := time.Now()
	results, err := c.Check(ctx, names)
	if err != nil {
		return nil, err
	}
	return &core.BatchResponse{
		Results: results,
		Summary: core.Summarize(results, time.Since(startedAt)),
	}, nil
}

func (c *Checker) resolve(ctx context.Context, labels []string) []outcome {
	out := make([]outcome, len(labels))
	if len(labels) == 0 {
		return out
	}
	if c.Registry == nil {
		for i := range out {
			out[i] = outcome{err: fmt.Errorf("%w: no registry configured", registry.ErrUnavailable)}
		}
		return out
	}

	var down atomic.Bool
	var g errgroup.Group
	g.SetLimit(c.concurrency())

	batcher, ok := c.Registry.(registry.BatchRegistry)
	if size := c.Config.BatchSize; ok && size > 1 {
		for start := 0; start < len(labels); start += size {
			end := min(start+size, len(labels))
			g.Go(func() error {
				c.resolveChunk(ctx, batcher, labels[start:end], out[start:end], &down)
				return nil
			})
		}
	} else {
		for i, label := range labels {
			g.Go(func() error {
				out[i] = c.lookup(ctx, label, &down)
				return nil
			})
		}
	}

	_ = g.Wait()
	return out
}

func (c *Checker) resolveChunk(ctx context.Context, batcher registry.BatchRegistry, labels []string, out []outcome, down *atomic.Bool) {
	if down.Load() {
		for i := range labels {
			out[i] = shortCircuited()
		}
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout())
	batch, err := safeBatch(callCtx, batcher, labels)
	cancel()

	if err == nil && len(batch) == len(labels) {
		for i := range labels {
			out[i] = outcome{record: batch[i].Record, err: registry.Classify(batch[i].Err)}
		}
		return
	}

	if err == nil {
		err = fmt.Errorf("%w: expected %d results, got %d", registry.ErrMalformedResponse, len(labels), len(batch))
	}
	err = registry.Classify(err)
	if registry.IsUnreachable(err) {
		down.Store(true)
		for i := range labels {
			out[i] = outcome{err: err}
		}
		return
	}

	// The multicall failed as a whole; fall back to one call per label.
	for i, label := range labels {
		out[i] = c.lookup(ctx, label, down)
	}
}

func (c *Checker) lookup(ctx context.Context, label string, down *atomic.Bool) outcome {
	if down.Load() {
		return shortCircuited()
	}
	if err := ctx.Err(); err != nil {
		return outcome{err: registry.Classify(err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	record, err := safeLookup(callCtx, c.Registry, label)
	if err != nil {
		err = registry.Classify(err)
		if registry.IsUnreachable(err) {
			down.Store(true)
		}
		return outcome{record: record, err: err}
	}
	return outcome{record: record}
}

func safeLookup(ctx context.Context, reg registry.Registry, label string) (record core.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errLookupPanic, r)
		}
	}()
	return reg.Lookup(ctx, label)
}

func safeBatch(ctx context.Context, batcher registry.BatchRegistry, labels []string) (results []registry.BatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("%w: %v", errLookupPanic, r)
		}
	}()
	return batcher.LookupBatch(ctx, labels)
}

func shortCircuited() outcome {
	metrics.RecordShortCircuit()
	return outcome{err: fmt.Errorf("%w: skipped after earlier connection failure", registry.ErrUnreachable)}
}

func invalidResult(raw, label, reason string) *core.AvailabilityResult {
	name := label
	if name == "" {
		name = raw
	}
	return &core.AvailabilityResult{
		Name:    name,
		Display: name + core.Suffix,
		Status:  core.StatusInvalid,
		Detail:  reason,
	}
}

func buildResult(label string, o outcome, now time.Time) *core.AvailabilityResult {
	result := &core.AvailabilityResult{
		Name:         label,
		Display:      label + core.Suffix,
		Length:       len(label),
		PriceUSDYear: core.PriceUSD(len(label)),
		TokenID:      o.record.TokenID,
	}

	if o.err != nil {
		result.Status = core.StatusError
		result.Detail = PublicDetail(o.err)
		result.Cause = o.err
		return result
	}

	record := o.record
	phase := record.PhaseAt(now)
	switch phase {
	case core.PhaseActive, core.PhaseGrace:
		result.Status = core.StatusTaken
	default:
		result.Status = core.StatusAvailable
	}
	result.Phase = phase
	result.Owner = record.Owner
	if !record.ExpiresAt.IsZero() {
		result.ExpiresUnix = record.ExpiresAt.Unix()
		result.ExpiresDate = record.ExpiresAt.UTC().Format(time.DateOnly)
	}
	return result
}

// PublicDetail turns a lookup failure into a message safe to show to callers.
func PublicDetail(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, registry.ErrUnreachable), errors.Is(err, registry.ErrUnavailable),
		errors.Is(err, registry.ErrMalformedResponse):
		return "registry unavailable"
	case errors.Is(err, registry.ErrTimeout):
		return "registry timeout"
	default:
		return "lookup failed"
	}
}

func (c *Checker) maxBatch() int {
	if c.Config.MaxBatch > 0 {
		return c.Config.MaxBatch
	}
	return DefaultMaxBatch
}

func (c *Checker) concurrency() int {
	if c.Config.Concurrency > 0 {
		return c.Config.Concurrency
	}
	return DefaultConcurrency
}

func (c *Checker) timeout() time.Duration {
	if c.Config.Timeout > 0 {
		return c.Config.Timeout
	}
	return DefaultTimeout
}

func (c *Checker) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
