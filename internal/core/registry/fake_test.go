package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
)

// revertError mimics the JSON-RPC error a node returns for a reverted call.
type revertError struct{}

func (revertError) Error() string  { return "execution reverted" }
func (revertError) ErrorCode() int { return 3 }

type fakeName struct {
	expiresAt uint64
	owner     common.Address
}

// fakeChain answers MegaNames and Multicall3 calls from an in-memory table.
type fakeChain struct {
	t     *testing.T
	names map[string]fakeName // keyed by token id hex

	mu         sync.Mutex
	calls      int
	multicalls int

	// failRecords makes records() revert inside multicall for these labels.
	failRecords map[string]bool
	// transportErr fails every call before it reaches the contract.
	transportErr error
	// rawAggregate replaces the aggregate3 return data.
	rawAggregate []byte
	// rawRecords replaces the records() return data.
	rawRecords []byte
	block      uint64
}

func newFakeChain(t *testing.T) *fakeChain {
	return &fakeChain{t: t, names: make(map[string]fakeName), failRecords: make(map[string]bool), block: 42}
}

func (f *fakeChain) register(label string, expiresAt uint64, owner common.Address) {
	f.names[TokenIDHex(TokenID(label))] = fakeName{expiresAt: expiresAt, owner: owner}
}

func (f *fakeChain) labelFor(id *big.Int) (string, fakeName, bool) {
	name, ok := f.names[TokenIDHex(id)]
	if !ok {
		return "", fakeName{}, false
	}
	return "registered", name, true
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.transportErr != nil {
		return nil, f.transportErr
	}
	return f.dispatch(msg.Data)
}

func (f *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	if f.transportErr != nil {
		return 0, f.transportErr
	}
	return f.block, nil
}

func (f *fakeChain) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeChain) dispatch(data []byte) ([]byte, error) {
	require.GreaterOrEqual(f.t, len(data), 4)

	if method, err := multicall3ABI.MethodById(data[:4]); err == nil && method.Name == "aggregate3" {
		return f.aggregate(method, data[4:])
	}

	method, err := megaNamesABI.MethodById(data[:4])
	require.NoError(f.t, err)
	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(f.t, err)
	id := args[0].(*big.Int)

	switch method.Name {
	case "records":
		if f.rawRecords != nil {
			return f.rawRecords, nil
		}
		label, name, _ := f.labelFor(id)
		return method.Outputs.Pack(label, big.NewInt(0), name.expiresAt, uint64(0), uint64(0))
	case "ownerOf":
		_, name, ok := f.labelFor(id)
		if !ok {
			return nil, revertError{}
		}
		return method.Outputs.Pack(name.owner)
	}
	return nil, fmt.Errorf("unexpected method %s", method.Name)
}

func (f *fakeChain) aggregate(method *abi.Method, input []byte) ([]byte, error) {
	f.mu.Lock()
	f.multicalls++
	f.mu.Unlock()

	if f.rawAggregate != nil {
		return f.rawAggregate, nil
	}

	args, err := method.Inputs.Unpack(input)
	require.NoError(f.t, err)
	calls := *abi.ConvertType(args[0], new([]call3)).(*[]call3)

	results := make([]call3Result, len(calls))
	for i, call := range calls {
		if f.failRecords[f.labelOfCall(call.CallData)] && i%2 == 0 {
			continue
		}
		out, err := f.dispatch(call.CallData)
		if err != nil {
			continue
		}
		results[i] = call3Result{Success: true, ReturnData: out}
	}
	return method.Outputs.Pack(results)
}

func (f *fakeChain) labelOfCall(data []byte) string {
	method, err := megaNamesABI.MethodById(data[:4])
	if err != nil {
		return ""
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return ""
	}
	id := TokenIDHex(args[0].(*big.Int))
	for label := range f.failRecords {
		if TokenIDHex(TokenID(label)) == id {
			return label
		}
	}
	return ""
}

func (f *fakeChain) multicallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.multicalls
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// serveJSONRPC exposes chain as an eth_call / eth_blockNumber endpoint.
func serveJSONRPC(t *testing.T, chain *fakeChain) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
		switch req.Method {
		case "eth_blockNumber":
			resp.Result = hexutil.EncodeUint64(chain.block)
		case "eth_call":
			var arg struct {
				Data  hexutil.Bytes `json:"data"`
				Input hexutil.Bytes `json:"input"`
			}
			require.NoError(t, json.Unmarshal(req.Params[0], &arg))
			data := arg.Input
			if len(data) == 0 {
				data = arg.Data
			}
			out, err := chain.dispatch(data)
			if err != nil {
				resp.Error = &rpcError{Code: 3, Message: err.Error()}
			} else {
				resp.Result = hexutil.Encode(out)
			}
		default:
			resp.Error = &rpcError{Code: -32601, Message: "method not found"}
		}

		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(resp))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}
