// Package traceWalker extracts and decodes event logs from the structLogs
// of a debug_traceTransaction result. Because the trace records every
// executed instruction, this also recovers the events of reverted
// transactions, which never make it into a receipt.
package traceWalker

import (
	"encoding/hex"
	"errors"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/evmkit/ethevent/pkg/logDecoder"
	"github.com/evmkit/ethevent/pkg/types"
)

// Walker walks execution traces against the topic map it was built with.
type Walker struct {
	topicMap types.TopicMap
	logger   *zap.Logger
}

func NewWalker(topicMap types.TopicMap, logger *zap.Logger) *Walker {
	return &Walker{
		topicMap: topicMap,
		logger:   logger,
	}
}

// DecodeTraceTransaction walks the trace steps in order, extracting one
// event per LOG0..LOG4 instruction.
//
// When initialAddress is non-empty the walker maintains a stack of
// executing contract addresses: entering a call pushes the callee (the
// second-from-top stack word of the calling step, or, after CREATE/CREATE2,
// the address returned on the creator's stack once the creation frame
// exits), and returning from a call pops it. Each extracted event is tagged
// with the address on top of the stack at its LOG step. With an empty
// initialAddress no derivation is attempted and events carry no address.
//
// Unknown or topicless logs follow the allowUndecoded policy of the batch
// decoder. Steps missing the stack or memory data a LOG instruction needs
// fail with StructLogError.
func (w *Walker) DecodeTraceTransaction(
	steps []*types.TraceStep,
	allowUndecoded bool,
	initialAddress string,
) ([]*types.DecodedEvent, error) {
	events := make([]*types.DecodedEvent, 0)
	if len(steps) == 0 {
		return events, nil
	}

	trackAddresses := initialAddress != ""
	addressStack := []string{""}
	if trackAddresses {
		addressStack[0] = common.HexToAddress(initialAddress).Hex()
	}

	lastStep := steps[0]
	for i := 1; i < len(steps); i++ {
		step := steps[i]

		if trackAddresses {
			if step.Depth > lastStep.Depth {
				address, err := w.enteredAddress(steps[i:], lastStep)
				if err != nil {
					return nil, err
				}
				addressStack = append(addressStack, address)
			} else if step.Depth < lastStep.Depth && len(addressStack) > 1 {
				addressStack = addressStack[:len(addressStack)-1]
			}
		}
		lastStep = step

		if !strings.HasPrefix(step.Op, "LOG") {
			continue
		}

		topics, data, err := extractLog(step)
		if err != nil {
			return nil, err
		}

		currentAddress := addressStack[len(addressStack)-1]
		if len(topics) == 0 || w.topicMap[topics[0]] == nil {
			if !allowUndecoded {
				return nil, types.NewUnknownEventError("log contains undecodable event")
			}
			events = append(events, &types.DecodedEvent{
				Address: currentAddress,
				Decoded: false,
				Topics:  topicStrings(topics),
				RawData: hexutil.Encode(data),
			})
			continue
		}

		schema := w.topicMap[topics[0]]
		w.logger.Sugar().Debugw("decoding trace log",
			zap.String("event", schema.Name),
			zap.Int("depth", step.Depth),
			zap.String("address", currentAddress),
		)
		fields, err := logDecoder.DecodeEventData(schema, topics[1:], data)
		if err != nil {
			return nil, err
		}
		events = append(events, &types.DecodedEvent{
			Name:    schema.Name,
			Address: currentAddress,
			Decoded: true,
			Data:    fields,
		})
	}
	return events, nil
}

// enteredAddress derives the address of the frame entered after lastStep.
// For a plain call the target sits second from the top of the calling
// step's stack. For CREATE/CREATE2 the new contract's address is unknown
// until the creation frame exits, so it is read from the top stack word of
// the first later step back at the creator's depth.
func (w *Walker) enteredAddress(remaining []*types.TraceStep, lastStep *types.TraceStep) (string, error) {
	if lastStep.Op == "CREATE" || lastStep.Op == "CREATE2" {
		for _, out := range remaining {
			if out.Depth == lastStep.Depth {
				if len(out.Stack) == 0 {
					return "", types.NewStructLogError("malformed stack")
				}
				return stackAddress(out.Stack[len(out.Stack)-1]), nil
			}
		}
		return "", types.NewStructLogError("trace ended before %s returned", lastStep.Op)
	}
	if lastStep.Stack == nil {
		return "", types.NewStructLogError("structLog has no stack")
	}
	if len(lastStep.Stack) < 2 {
		return "", types.NewStructLogError("malformed stack")
	}
	return stackAddress(lastStep.Stack[len(lastStep.Stack)-2]), nil
}

// extractLog reads the offset/length operands and topic words of a LOG
// step from its stack and slices the payload out of its memory snapshot.
func extractLog(step *types.TraceStep) ([]common.Hash, []byte, error) {
	topicCount, ok := logTopicCount(step.Op)
	if !ok {
		return nil, nil, types.NewStructLogError("unrecognized log opcode %q", step.Op)
	}
	if step.Stack == nil {
		return nil, nil, types.NewStructLogError("structLog has no stack")
	}
	height := len(step.Stack)
	if height < 2+topicCount {
		return nil, nil, types.NewStructLogError("malformed stack")
	}

	offset, err := stackWord(step.Stack[height-1])
	if err != nil {
		return nil, nil, err
	}
	length, err := stackWord(step.Stack[height-2])
	if err != nil {
		return nil, nil, err
	}
	// Topic operands sit beneath offset/length, pushed in reverse
	// declaration order.
	topics := make([]common.Hash, 0, topicCount)
	for j := 0; j < topicCount; j++ {
		topics = append(topics, common.HexToHash(step.Stack[height-3-j]))
	}

	if step.Memory == nil {
		return nil, nil, types.NewStructLogError("malformed memory")
	}
	var memory []byte
	for _, word := range step.Memory {
		decoded, err := hex.DecodeString(strings.TrimPrefix(word, "0x"))
		if err != nil {
			return nil, nil, types.NewStructLogError("malformed memory")
		}
		memory = append(memory, decoded...)
	}

	return topics, sliceMemory(memory, offset, length), nil
}

// logTopicCount maps LOG0..LOG4 to the number of topic operands.
func logTopicCount(op string) (int, bool) {
	if len(op) != 4 {
		return 0, false
	}
	suffix := op[3]
	if suffix < '0' || suffix > '4' {
		return 0, false
	}
	return int(suffix - '0'), true
}

// stackWord parses a hex stack word as an unsigned offset or length. Stack
// words are 256 bit; anything wider than 64 bits can only point past every
// real memory snapshot, so it saturates and slicing yields an empty or
// truncated payload instead of an error.
func stackWord(word string) (uint64, error) {
	value, err := hexutil.DecodeUint64(normalizeHexWord(word))
	if errors.Is(err, hexutil.ErrUint64Range) {
		return math.MaxUint64, nil
	}
	if err != nil {
		return 0, types.NewStructLogError("malformed stack")
	}
	return value, nil
}

// normalizeHexWord brings both stack word formats geth has produced over
// time ("0x1a" and zero-padded "000...01a") into canonical 0x form.
func normalizeHexWord(word string) string {
	word = strings.TrimPrefix(word, "0x")
	trimmed := strings.TrimLeft(word, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

// stackAddress reads an address from the low 20 bytes of a stack word.
func stackAddress(word string) string {
	return common.HexToAddress(word).Hex()
}

// sliceMemory cuts [offset, offset+length) out of the concatenated memory
// words, truncating at the buffer end the way trace consumers conventionally
// do rather than failing on short snapshots.
func sliceMemory(memory []byte, offset, length uint64) []byte {
	if offset >= uint64(len(memory)) {
		return []byte{}
	}
	// Comparing against the remaining room avoids overflow in
	// offset+length for huge length operands.
	end := uint64(len(memory))
	if length < end-offset {
		end = offset + length
	}
	return memory[offset:end]
}

func topicStrings(topics []common.Hash) []string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		out = append(out, topic.Hex())
	}
	return out
}
