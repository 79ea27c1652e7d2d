package registry

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/meganame/megacheck/internal/core"
	"github.com/meganame/megacheck/internal/metrics"
)

// ContractCaller is the slice of an Ethereum client the registry needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Options configures a MegaNames registry client.
type Options struct {
	RPCURL            string
	NamesAddress      string
	MulticallAddress  string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// MegaNames reads registrations from the MegaNames contract on MegaETH.
type MegaNames struct {
	caller    ContractCaller
	names     common.Address
	multicall common.Address
	limiter   *rate.Limiter
	close     func()
}

// Dial connects to the JSON-RPC endpoint in opts and returns a client.
// HTTP endpoints are not contacted until the first call.
func Dial(ctx context.Context, opts Options) (*MegaNames, error) {
	endpoint := strings.TrimSpace(opts.RPCURL)
	if endpoint == "" {
		endpoint = DefaultRPCURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rpcClient, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("dial registry rpc %s: %w", endpoint, err)
	}

	client := ethclient.NewClient(rpcClient)
	registry, err := New(client, opts)
	if err != nil {
		client.Close()
		return nil, err
	}
	registry.close = client.Close
	return registry, nil
}

// New builds a registry client on top of an existing caller.
func New(caller ContractCaller, opts Options) (*MegaNames, error) {
	if caller == nil {
		return nil, fmt.Errorf("registry caller is required")
	}

	namesAddr, err := parseAddress(opts.NamesAddress, DefaultNamesAddress)
	if err != nil {
		return nil, fmt.Errorf("names contract: %w", err)
	}
	multicallAddr, err := parseAddress(opts.MulticallAddress, DefaultMulticallAddress)
	if err != nil {
		return nil, fmt.Errorf("multicall contract: %w", err)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &MegaNames{
		caller:    caller,
		names:     namesAddr,
		multicall: multicallAddr,
		limiter:   limiter,
	}, nil
}

// Close releases the underlying RPC connection.
func (m *MegaNames) Close() {
	if m != nil && m.close != nil {
		m.close()
	}
}

// BlockNumber returns the latest block seen by the endpoint.
func (m *MegaNames) BlockNumber(ctx context.Context) (uint64, error) {
	if err := m.wait(ctx); err != nil {
		return 0, wrap(ErrTimeout, err)
	}
	block, err := m.caller.BlockNumber(ctx)
	if err != nil {
		return 0, Classify(err)
	}
	return block, nil
}

// Lookup resolves one label with two direct eth_call requests.
func (m *MegaNames) Lookup(ctx context.Context, label string) (core.Record, error) {
	id := TokenID(label)
	record := core.Record{Label: label, TokenID: TokenIDHex(id)}

	recordsData, err := packRecords(id)
	if err != nil {
		return record, err
	}
	raw, err := m.call(ctx, "records", m.names, recordsData)
	if err != nil {
		return record, Classify(err)
	}
	fields, err := unpackRecords(raw)
	if err != nil {
		return record, wrap(ErrMalformedResponse, err)
	}
	applyRecord(&record, fields)

	ownerData, err := packOwnerOf(id)
	if err != nil {
		return record, err
	}
	raw, err = m.call(ctx, "ownerOf", m.names, ownerData)
	switch {
	case err == nil:
		if owner, decodeErr := unpackOwnerOf(raw); decodeErr == nil {
			applyOwner(&record, owner)
		}
	case isRevert(err):
		// ownerOf reverts for tokens that were never minted
	default:
		return record, Classify(err)
	}

	return record, nil
}

// LookupBatch resolves labels through a single Multicall3 aggregate3 call,
// two sub-calls per label.
func (m *MegaNames) LookupBatch(ctx context.Context, labels []string) ([]BatchResult, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	ids := make([]*big.Int, len(labels))
	calls := make([]call3, 0, len(labels)*2)
	for i, label := range labels {
		ids[i] = TokenID(label)

		recordsData, err := packRecords(ids[i])
		if err != nil {
			return nil, err
		}
		ownerData, err := packOwnerOf(ids[i])
		if err != nil {
			return nil, err
		}
		calls = append(calls,
			call3{Target: m.names, AllowFailure: true, CallData: recordsData},
			call3{Target: m.names, AllowFailure: true, CallData: ownerData},
		)
	}

	payload, err := packAggregate3(calls)
	if err != nil {
		return nil, err
	}
	raw, err := m.call(ctx, "aggregate3", m.multicall, payload)
	if err != nil {
		return nil, Classify(err)
	}
	returned, err := unpackAggregate3(raw)
	if err != nil {
		return nil, wrap(ErrMalformedResponse, err)
	}
	if len(returned) != len(calls) {
		return nil, fmt.Errorf("%w: expected %d results, got %d", ErrMalformedResponse, len(calls), len(returned))
	}

	results := make([]BatchResult, len(labels))
	for i, label := range labels {
		record := core.Record{Label: label, TokenID: TokenIDHex(ids[i])}
		rec, own := returned[i*2], returned[i*2+1]

		if !rec.Success {
			results[i] = BatchResult{Record: record, Err: ErrCallFailed}
			continue
		}
		fields, err := unpackRecords(rec.ReturnData)
		if err != nil {
			results[i] = BatchResult{Record: record, Err: wrap(ErrMalformedResponse, err)}
			continue
		}
		applyRecord(&record, fields)

		if own.Success {
			if owner, err := unpackOwnerOf(own.ReturnData); err == nil {
				applyOwner(&record, owner)
			}
		}
		results[i] = BatchResult{Record: record}
	}

	return results, nil
}

func (m *MegaNames) call(ctx context.Context, method string, to common.Address, data []byte) ([]byte, error) {
	if err := m.wait(ctx); err != nil {
		return nil, wrap(ErrTimeout, err)
	}

	started := time.Now()
	target := to
	out, err := m.caller.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)

	outcome := "ok"
	switch {
	case isRevert(err):
		outcome = "revert"
	case err != nil:
		outcome = "error"
	}
	metrics.RecordRegistryCall(method, outcome, time.Since(started))
	return out, err
}

func (m *MegaNames) wait(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	return m.limiter.Wait(ctx)
}

func applyRecord(record *core.Record, fields recordFields) {
	if fields.Label == "" {
		return
	}
	record.Registered = true
	// Expiries past year 9999 (type(uint64).max included) mark permanent
	// names and are left zero, which never expires.
	if fields.ExpiresAt > 0 && fields.ExpiresAt <= maxExpiry {
		record.ExpiresAt = time.Unix(int64(fields.ExpiresAt), 0).UTC()
	}
}

// maxExpiry is 9999-12-31T23:59:59Z in Unix seconds.
const maxExpiry = 253402300799

func applyOwner(record *core.Record, owner common.Address) {
	if owner != (common.Address{}) {
		record.Owner = owner.Hex()
	}
}

func parseAddress(value, fallback string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address %q", value)
	}
	return common.HexToAddress(value), nil
}
