package registry

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Deployed MegaETH mainnet addresses.
const (
	DefaultNamesAddress     = "0x5B424C6CCba77b32b9625a6fd5A30D409d20d997"
	DefaultMulticallAddress = "0xcA11bde05977b3631167028862bE2a173976CA11"
	DefaultRPCURL           = "https://mainnet.megaeth.com/rpc"
)

// megaNode is namehash("mega"): keccak256(bytes32(0) || keccak256("mega")).
var megaNode = common.FromHex("0x892fab39f6d2ae901009febba7dbdd0fd85e8a1651be6b8901774cdef395852f")

const megaNamesABIJSON = `[
  {"type":"function","name":"records","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[
     {"name":"label","type":"string"},
     {"name":"parent","type":"uint256"},
     {"name":"expiresAt","type":"uint64"},
     {"name":"epoch","type":"uint64"},
     {"name":"parentEpoch","type":"uint64"}]},
  {"type":"function","name":"ownerOf","stateMutability":"view",
   "inputs":[{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"","type":"address"}]}
]`

const multicall3ABIJSON = `[
  {"type":"function","name":"aggregate3","stateMutability":"payable",
   "inputs":[{"name":"calls","type":"tuple[]","components":[
     {"name":"target","type":"address"},
     {"name":"allowFailure","type":"bool"},
     {"name":"callData","type":"bytes"}]}],
   "outputs":[{"name":"returnData","type":"tuple[]","components":[
     {"name":"success","type":"bool"},
     {"name":"returnData","type":"bytes"}]}]}
]`

var (
	megaNamesABI  = mustParseABI(megaNamesABIJSON)
	multicall3ABI = mustParseABI(multicall3ABIJSON)
)

// call3 mirrors the Multicall3 Call3 struct.
type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// call3Result mirrors the Multicall3 Result struct.
type call3Result struct {
	Success    bool
	ReturnData []byte
}

// recordFields is the decoded output of records(uint256).
type recordFields struct {
	Label     string
	ExpiresAt uint64
}

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}

// TokenID derives the ERC-721 token id for a label under .mega.
func TokenID(label string) *big.Int {
	labelHash := crypto.Keccak256([]byte(label))
	return new(big.Int).SetBytes(crypto.Keccak256(megaNode, labelHash))
}

// TokenIDHex renders a token id the way block explorers do.
func TokenIDHex(id *big.Int) string {
	return hexutil.EncodeBig(id)
}

func packRecords(id *big.Int) ([]byte, error) {
	return megaNamesABI.Pack("records", id)
}

func packOwnerOf(id *big.Int) ([]byte, error) {
	return megaNamesABI.Pack("ownerOf", id)
}

func unpackRecords(data []byte) (recordFields, error) {
	out, err := megaNamesABI.Unpack("records", data)
	if err != nil {
		return recordFields{}, err
	}
	if len(out) != 5 {
		return recordFields{}, ErrMalformedResponse
	}
	label, ok := out[0].(string)
	if !ok {
		return recordFields{}, ErrMalformedResponse
	}
	expiresAt, ok := out[2].(uint64)
	if !ok {
		return recordFields{}, ErrMalformedResponse
	}
	return recordFields{Label: label, ExpiresAt: expiresAt}, nil
}

func unpackOwnerOf(data []byte) (common.Address, error) {
	out, err := megaNamesABI.Unpack("ownerOf", data)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) != 1 {
		return common.Address{}, ErrMalformedResponse
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, ErrMalformedResponse
	}
	return owner, nil
}

func packAggregate3(calls []call3) ([]byte, error) {
	return multicall3ABI.Pack("aggregate3", calls)
}

func unpackAggregate3(data []byte) ([]call3Result, error) {
	out, err := multicall3ABI.Unpack("aggregate3", data)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, ErrMalformedResponse
	}
	converted, ok := abi.ConvertType(out[0], new([]call3Result)).(*[]call3Result)
	if !ok || converted == nil {
		return nil, ErrMalformedResponse
	}
	return *converted, nil
}
