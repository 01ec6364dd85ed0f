package traceWalker

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/evmkit/ethevent/internal/testUtils"
	"github.com/evmkit/ethevent/pkg/types"
)

var (
	rootAddr    = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	calleeAddr  = common.HexToAddress("0x00000000219ab540356cbb839cbe05303d7705fa")
	createdAddr = common.HexToAddress("0xbe0eb53f46cd790cd13851d5eff43d12404d33e8")
	fromAddr    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	toAddr      = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func newTestWalker(t *testing.T) *Walker {
	t.Helper()
	return NewWalker(testUtils.MustTopicMap(t, testUtils.ERC20ABI), zap.NewNop())
}

func transferLogStep(t *testing.T, depth int, value int64) *types.TraceStep {
	t.Helper()
	return testUtils.LogStep(depth,
		[]common.Hash{
			testUtils.TransferTopic,
			testUtils.AddressTopic(fromAddr),
			testUtils.AddressTopic(toAddr),
		},
		testUtils.MustPack(t,
			[]types.ParameterSpec{{Name: "value", Type: "uint256"}},
			big.NewInt(value),
		),
	)
}

func TestDecodeTraceTransaction(t *testing.T) {
	walker := newTestWalker(t)

	steps := []*types.TraceStep{
		testUtils.Step("PUSH1", 1),
		transferLogStep(t, 1, 100),
		testUtils.Step("STOP", 1),
	}

	events, err := walker.DecodeTraceTransaction(steps, false, rootAddr.Hex())
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, "Transfer", event.Name)
	assert.True(t, event.Decoded)
	assert.Equal(t, rootAddr.Hex(), event.Address)
	require.Len(t, event.Data, 3)
	assert.Equal(t, fromAddr.Hex(), event.Data[0].Value)
	assert.Equal(t, toAddr.Hex(), event.Data[1].Value)
	assert.Equal(t, big.NewInt(100), event.Data[2].Value)
}

func TestDecodeTraceTransactionWithoutAddressTracking(t *testing.T) {
	walker := newTestWalker(t)

	// The call step has no stack; with tracking disabled the walker must
	// never look at it.
	steps := []*types.TraceStep{
		testUtils.Step("PUSH1", 1),
		testUtils.Step("CALL", 1),
		transferLogStep(t, 2, 1),
		testUtils.Step("RETURN", 2),
		transferLogStep(t, 1, 2),
	}

	events, err := walker.DecodeTraceTransaction(steps, false, "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, event := range events {
		assert.Empty(t, event.Address)
		assert.True(t, event.Decoded)
	}
}

func TestDecodeTraceTransactionSameDepthSameAddress(t *testing.T) {
	// Two LOG steps at the same depth with no call in between carry the
	// same tracked address.
	walker := newTestWalker(t)

	steps := []*types.TraceStep{
		testUtils.Step("PUSH1", 1),
		transferLogStep(t, 1, 1),
		transferLogStep(t, 1, 2),
	}

	events, err := walker.DecodeTraceTransaction(steps, false, rootAddr.Hex())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, events[0].Address, events[1].Address)
	assert.Equal(t, rootAddr.Hex(), events[0].Address)
}

func TestDecodeTraceTransactionCallDepth(t *testing.T) {
	walker := newTestWalker(t)

	steps := []*types.TraceStep{
		testUtils.Step("PUSH1", 1),
		testUtils.CallStep("CALL", 1, calleeAddr),
		transferLogStep(t, 2, 1), // inside the callee
		testUtils.Step("RETURN", 2),
		testUtils.Step("POP", 1), // back in the caller
		transferLogStep(t, 1, 2),
	}

	events, err := walker.DecodeTraceTransaction(steps, false, rootAddr.Hex())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, calleeAddr.Hex(), events[0].Address)
	assert.Equal(t, rootAddr.Hex(), events[1].Address)
}

func TestDecodeTraceTransactionCreate(t *testing.T) {
	// The created contract's address is only known once the creation
	// frame exits: it is the top stack word of the first later step back
	// at the creator's depth.
	walker := newTestWalker(t)

	steps := []*types.TraceStep{
		testUtils.Step("PUSH1", 1),
		testUtils.Step("CREATE", 1),
		transferLogStep(t, 2, 1), // constructor event
		testUtils.Step("RETURN", 2),
		testUtils.ReturnStep(1, testUtils.AddressTopic(createdAddr)),
	}

	events, err := walker.DecodeTraceTransaction(steps, false, rootAddr.Hex())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, createdAddr.Hex(), events[0].Address)
}

func TestDecodeTraceTransactionUnknownEvent(t *testing.T) {
	walker := newTestWalker(t)

	unknownTopic := common.HexToHash("0xabcd")
	steps := []*types.TraceStep{
		testUtils.Step("PUSH1", 1),
		testUtils.LogStep(1, []common.Hash{unknownTopic}, []byte{0xca, 0xfe}),
	}

	_, err := walker.DecodeTraceTransaction(steps, false, rootAddr.Hex())
	require.Error(t, err)
	var unknownErr *types.UnknownEventError
	assert.ErrorAs(t, err, &unknownErr)

	events, err := walker.DecodeTraceTransaction(steps, true, rootAddr.Hex())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Name)
	assert.False(t, events[0].Decoded)
	assert.Equal(t, rootAddr.Hex(), events[0].Address)
	assert.Equal(t, []string{unknownTopic.Hex()}, events[0].Topics)
	assert.Equal(t, "0xcafe", events[0].RawData)
}

func TestDecodeTraceTransactionLog0(t *testing.T) {
	walker := newTestWalker(t)

	steps := []*types.TraceStep{
		testUtils.Step("PUSH1", 1),
		testUtils.LogStep(1, nil, []byte{0x01}),
	}

	events, err := walker.DecodeTraceTransaction(steps, true, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Decoded)
	assert.Empty(t, events[0].Topics)
}

func TestDecodeTraceTransactionStructLogErrors(t *testing.T) {
	walker := newTestWalker(t)

	logStep := func(mutate func(step *types.TraceStep)) []*types.TraceStep {
		step := transferLogStep(t, 1, 1)
		mutate(step)
		return []*types.TraceStep{testUtils.Step("PUSH1", 1), step}
	}

	tests := []struct {
		name  string
		steps []*types.TraceStep
	}{
		{
			name:  "log step without stack",
			steps: logStep(func(step *types.TraceStep) { step.Stack = nil }),
		},
		{
			name:  "stack too short for topic count",
			steps: logStep(func(step *types.TraceStep) { step.Stack = step.Stack[:2] }),
		},
		{
			name:  "non-hex stack word",
			steps: logStep(func(step *types.TraceStep) { step.Stack[len(step.Stack)-1] = "bogus" }),
		},
		{
			name:  "log step without memory",
			steps: logStep(func(step *types.TraceStep) { step.Memory = nil }),
		},
		{
			name:  "non-hex memory word",
			steps: logStep(func(step *types.TraceStep) { step.Memory[0] = "zz" }),
		},
		{
			name: "call step without stack while tracking",
			steps: []*types.TraceStep{
				testUtils.Step("CALL", 1),
				transferLogStep(t, 2, 1),
			},
		},
		{
			name: "trace ends before CREATE returns",
			steps: []*types.TraceStep{
				testUtils.Step("CREATE", 1),
				transferLogStep(t, 2, 1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := walker.DecodeTraceTransaction(tt.steps, true, rootAddr.Hex())
			require.Error(t, err)
			var structLogErr *types.StructLogError
			assert.ErrorAs(t, err, &structLogErr)
		})
	}
}

func TestDecodeTraceTransactionOversizedLogOperands(t *testing.T) {
	// Offset and length operands the contract can push freely; huge values
	// must truncate the payload at the snapshot end, never index past it.
	walker := newTestWalker(t)

	logSteps := func(offset, length string) []*types.TraceStep {
		step := &types.TraceStep{
			Op:     "LOG0",
			Depth:  1,
			Stack:  []string{length, offset},
			Memory: []string{strings.Repeat("00", 32)},
		}
		return []*types.TraceStep{testUtils.Step("PUSH1", 1), step}
	}

	tests := []struct {
		name    string
		offset  string
		length  string
		rawData string
	}{
		{
			name:    "length wraps offset+length past the buffer end",
			offset:  "0x1",
			length:  "0xffffffffffffffff",
			rawData: hexutil.Encode(make([]byte, 31)),
		},
		{
			name:    "offset wider than 64 bits",
			offset:  "0x10000000000000000",
			length:  "0x20",
			rawData: "0x",
		},
		{
			name:    "length wider than 64 bits",
			offset:  "0x0",
			length:  "0x10000000000000000",
			rawData: hexutil.Encode(make([]byte, 32)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := walker.DecodeTraceTransaction(logSteps(tt.offset, tt.length), true, "")
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.False(t, events[0].Decoded)
			assert.Equal(t, tt.rawData, events[0].RawData)
		})
	}
}

func TestDecodeTraceTransactionMemorySlicing(t *testing.T) {
	// The payload is cut out of the concatenated memory words at the
	// offset the LOG step's stack names.
	walker := newTestWalker(t)

	data := testUtils.MustPack(t,
		[]types.ParameterSpec{{Name: "value", Type: "uint256"}},
		big.NewInt(42),
	)
	step := testUtils.LogStep(1,
		[]common.Hash{
			testUtils.TransferTopic,
			testUtils.AddressTopic(fromAddr),
			testUtils.AddressTopic(toAddr),
		},
		append(make([]byte, 32), data...), // one scratch word before the payload
	)
	// Point the offset operand past the scratch word.
	step.Stack[len(step.Stack)-1] = "0x20"

	events, err := walker.DecodeTraceTransaction([]*types.TraceStep{testUtils.Step("PUSH1", 1), step}, false, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, big.NewInt(42), events[0].Data[2].Value)
}

func TestDecodeTraceTransactionEmptyTrace(t *testing.T) {
	walker := newTestWalker(t)

	events, err := walker.DecodeTraceTransaction(nil, false, "")
	require.NoError(t, err)
	assert.Empty(t, events)
}
