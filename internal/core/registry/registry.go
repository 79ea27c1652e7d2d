// Package registry exposes the on-chain name registry as a narrow lookup
// capability. Callers only need Registry; BatchRegistry is an optional fast
// path for implementations that can answer many labels in one round trip.
package registry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/meganame/megacheck/internal/core"
)

var (
	// ErrUnreachable means the endpoint could not be contacted at all.
	ErrUnreachable = errors.New("registry unreachable")
	// ErrUnavailable means the endpoint answered but could not serve the call.
	ErrUnavailable = errors.New("registry unavailable")
	// ErrTimeout means the call did not finish within its deadline.
	ErrTimeout = errors.New("registry timeout")
	// ErrMalformedResponse means the returned data could not be decoded.
	ErrMalformedResponse = errors.New("malformed registry response")
	// ErrCallFailed means the contract call itself failed.
	ErrCallFailed = errors.New("registry call failed")
)

// Registry answers whether a single normalized label is registered.
type Registry interface {
	Lookup(ctx context.Context, label string) (core.Record, error)
}

// BatchResult is one entry of a batched lookup.
type BatchResult struct {
	Record core.Record
	Err    error
}

// BatchRegistry resolves several labels in one call. A non-nil error means the
// whole batch failed and nothing in the returned slice is meaningful.
type BatchRegistry interface {
	Registry
	LookupBatch(ctx context.Context, labels []string) ([]BatchResult, error)
}

// StatusReporter exposes chain liveness for health endpoints.
type StatusReporter interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// Classify maps transport and RPC failures onto the package sentinel errors.
// The original error stays in the chain for diagnostics.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrUnreachable, ErrUnavailable, ErrTimeout, ErrMalformedResponse, ErrCallFailed} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return wrap(ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return wrap(ErrUnavailable, err)
	}
	if isUnreachable(err) {
		return wrap(ErrUnreachable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrap(ErrTimeout, err)
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return wrap(ErrUnavailable, err)
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return wrap(ErrCallFailed, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return wrap(ErrUnavailable, err)
	}

	return wrap(ErrCallFailed, err)
}

// IsUnreachable reports whether err means no request can reach the registry.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout() {
		return true
	}
	return false
}

// isRevert reports whether a call failed because the contract reverted.
func isRevert(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	return strings.Contains(strings.ToLower(rpcErr.Error()), "revert")
}

type classified struct {
	sentinel error
	cause    error
}

func (c *classified) Error() string {
	return c.sentinel.Error() + ": " + c.cause.Error()
}

func (c *classified) Unwrap() []error {
	return []error{c.sentinel, c.cause}
}

func wrap(sentinel, cause error) error {
	return &classified{sentinel: sentinel, cause: cause}
}
