// Package testUtils holds the fixtures shared by the decoder tests:
// sample ABIs, ABI-encoded payload builders, and trace step builders.
package testUtils

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/evmkit/ethevent/pkg/topicRegistry"
	"github.com/evmkit/ethevent/pkg/types"
	"github.com/evmkit/ethevent/pkg/wordCodec"
)

// ERC20ABI is the event portion of the ERC-20 standard.
const ERC20ABI = `[
	{
		"type": "event",
		"name": "Transfer",
		"anonymous": false,
		"inputs": [
			{"name": "from", "type": "address", "indexed": true},
			{"name": "to", "type": "address", "indexed": true},
			{"name": "value", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "Approval",
		"anonymous": false,
		"inputs": [
			{"name": "owner", "type": "address", "indexed": true},
			{"name": "spender", "type": "address", "indexed": true},
			{"name": "value", "type": "uint256", "indexed": false}
		]
	}
]`

// TransferTopic is keccak256("Transfer(address,address,uint256)"), from the
// canonical ERC-20 specification.
var TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

func MustParseABI(t *testing.T, abiJSON string) []types.ABIEntry {
	t.Helper()
	entries, err := topicRegistry.ParseABI([]byte(abiJSON))
	if err != nil {
		t.Fatalf("failed to parse fixture ABI: %v", err)
	}
	return entries
}

func MustTopicMap(t *testing.T, abiJSON string) types.TopicMap {
	t.Helper()
	topicMap, err := topicRegistry.GetTopicMap(MustParseABI(t, abiJSON))
	if err != nil {
		t.Fatalf("failed to build fixture topic map: %v", err)
	}
	return topicMap
}

// MustPack ABI-encodes values against the given parameters, for building
// log data buffers without hand-maintained hex blobs.
func MustPack(t *testing.T, params []types.ParameterSpec, values ...interface{}) []byte {
	t.Helper()
	args, err := wordCodec.Arguments(params)
	if err != nil {
		t.Fatalf("failed to build arguments: %v", err)
	}
	data, err := args.Pack(values...)
	if err != nil {
		t.Fatalf("failed to pack values: %v", err)
	}
	return data
}

// AddressTopic left-pads an address into a 32 byte topic word.
func AddressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}

// UintTopic renders an unsigned integer as a 32 byte topic word.
func UintTopic(value *big.Int) common.Hash {
	return common.BigToHash(value)
}

// Step builds a bare trace step with no stack or memory snapshot.
func Step(op string, depth int) *types.TraceStep {
	return &types.TraceStep{Op: op, Depth: depth}
}

// CallStep builds a step for a call opcode with the target address in the
// second-from-top stack slot, as the EVM pushes call operands.
func CallStep(op string, depth int, target common.Address) *types.TraceStep {
	return &types.TraceStep{
		Op:    op,
		Depth: depth,
		Stack: []string{
			AddressTopic(target).Hex(), // call target
			"0xffff",                   // gas, top of stack
		},
	}
}

// ReturnStep builds a post-call step at the caller's depth with the given
// word on top of the stack (for CREATE, the created contract's address).
func ReturnStep(depth int, topOfStack common.Hash) *types.TraceStep {
	return &types.TraceStep{
		Op:    "PUSH1",
		Depth: depth,
		Stack: []string{topOfStack.Hex()},
	}
}

// LogStep builds a LOGn step whose stack and memory encode the given
// topics and payload: data sits at memory offset zero, the topic words sit
// beneath the length and offset operands in reverse declaration order.
func LogStep(depth int, topics []common.Hash, data []byte) *types.TraceStep {
	stack := make([]string, 0, len(topics)+2)
	for i := len(topics) - 1; i >= 0; i-- {
		stack = append(stack, topics[i].Hex())
	}
	stack = append(stack, fmt.Sprintf("0x%x", len(data))) // length
	stack = append(stack, "0x0")                          // offset, top of stack

	padded := common.RightPadBytes(data, ((len(data)+31)/32)*32)
	memory := make([]string, 0, len(padded)/32)
	for i := 0; i < len(padded); i += 32 {
		memory = append(memory, hex.EncodeToString(padded[i:i+32]))
	}

	return &types.TraceStep{
		Op:     fmt.Sprintf("LOG%d", len(topics)),
		Depth:  depth,
		Stack:  stack,
		Memory: memory,
	}
}
