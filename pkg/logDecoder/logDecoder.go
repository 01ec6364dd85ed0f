// Package logDecoder decodes receipt event logs against a topic map built
// by the topicRegistry package.
package logDecoder

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/evmkit/ethevent/pkg/types"
	"github.com/evmkit/ethevent/pkg/wordCodec"
)

// Decoder decodes event logs using the topic map it was built with. The
// topic map is read-only once constructed, so one Decoder is safe to use
// from concurrent callers.
type Decoder struct {
	topicMap types.TopicMap
	logger   *zap.Logger
}

func NewDecoder(topicMap types.TopicMap, logger *zap.Logger) *Decoder {
	return &Decoder{
		topicMap: topicMap,
		logger:   logger,
	}
}

// DecodeLog decodes a single event log from a transaction receipt into a
// structured event. A log without topics cannot be decoded (anonymous
// event); a first topic missing from the topic map is an UnknownEventError.
func (d *Decoder) DecodeLog(log *types.RawLog) (*types.DecodedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, types.NewEventError("cannot decode an anonymous event")
	}
	schema, ok := d.topicMap[log.Topics[0]]
	if !ok {
		return nil, types.NewUnknownEventError("event topic is not present in given ABI")
	}

	d.logger.Sugar().Debugw("decoding log",
		zap.String("event", schema.Name),
		zap.String("address", log.Address.Hex()),
	)

	fields, err := DecodeEventData(schema, log.Topics[1:], log.Data)
	if err != nil {
		return nil, err
	}
	event := &types.DecodedEvent{
		Name:    schema.Name,
		Address: log.Address.Hex(),
		Decoded: true,
		Data:    fields,
	}
	copyLogMetadata(log, event)
	return event, nil
}

// DecodeLogs decodes a list of receipt logs, preserving input order. A log
// with no topics or an unknown first topic fails the whole batch with
// UnknownEventError unless allowUndecoded is set, in which case it becomes
// an undecoded placeholder carrying the raw topics and payload.
func (d *Decoder) DecodeLogs(logs []*types.RawLog, allowUndecoded bool) ([]*types.DecodedEvent, error) {
	events := make([]*types.DecodedEvent, 0, len(logs))
	for _, log := range logs {
		if len(log.Topics) == 0 || d.topicMap[log.Topics[0]] == nil {
			if !allowUndecoded {
				return nil, types.NewUnknownEventError("log contains undecodable event")
			}
			event := &types.DecodedEvent{
				Address: log.Address.Hex(),
				Decoded: false,
				Topics:  topicStrings(log.Topics),
				RawData: hexutil.Encode(log.Data),
			}
			copyLogMetadata(log, event)
			events = append(events, event)
			continue
		}
		event, err := d.DecodeLog(log)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// DecodeEventData resolves a schema's inputs against the supplied index
// topics (topics[0] already stripped) and data buffer, returning one field
// per input in declaration order.
//
// The topic-count policy: when the ABI declares indexed inputs but the log
// carries no index topics at all, every input decodes from the data buffer
// as if nothing were indexed. Some toolchains emit such logs for events
// whose indexed values were never topic-encoded. Any other count mismatch
// is an EventError.
func DecodeEventData(schema *types.EventSchema, topics []common.Hash, data []byte) ([]types.DecodedField, error) {
	indexedCount := 0
	for _, input := range schema.Inputs {
		if input.Indexed {
			indexedCount++
		}
	}

	var unindexed []types.ParameterSpec
	consumeTopics := true
	switch {
	case indexedCount > 0 && len(topics) == 0:
		unindexed = schema.Inputs
		consumeTopics = false
	case len(topics) < indexedCount:
		return nil, types.NewEventError(
			"event log does not contain enough topics for the given ABI - this" +
				" is usually because an event argument is not marked as indexed")
	case len(topics) > indexedCount:
		return nil, types.NewEventError(
			"event log contains more topics than expected for the given ABI - this" +
				" is usually because an event argument is incorrectly marked as indexed")
	default:
		for _, input := range schema.Inputs {
			if !input.Indexed {
				unindexed = append(unindexed, input)
			}
		}
	}

	// Some logs record no payload at all for events whose unindexed fields
	// were all zero; a zero-filled buffer of the declared word count decodes
	// to the values such a log represents.
	buffer := []byte(data)
	if len(unindexed) > 0 && len(buffer) == 0 {
		buffer = make([]byte, 32*len(unindexed))
	}

	values, err := wordCodec.DecodeValues(unindexed, buffer)
	if err != nil {
		return nil, err
	}

	fields := make([]types.DecodedField, 0, len(schema.Inputs))
	topicIdx, valueIdx := 0, 0
	for _, input := range schema.Inputs {
		field := types.DecodedField{
			Name:       input.Name,
			Type:       input.Type,
			Components: input.Components,
		}
		if consumeTopics && input.Indexed {
			if topicIdx >= len(topics) {
				return nil, types.NewEventError("invalid event")
			}
			word := topics[topicIdx]
			topicIdx++
			if value, ok := wordCodec.DecodeSingle(input, word.Bytes()); ok {
				field.Value = value
				field.Decoded = true
			} else {
				// A dynamic type squeezed into one topic slot; the raw
				// word is all that can be returned.
				field.Value = word.Hex()
				field.Decoded = false
			}
		} else {
			if valueIdx >= len(values) {
				return nil, types.NewEventError("invalid event")
			}
			field.Value = values[valueIdx]
			field.Decoded = true
			valueIdx++
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func copyLogMetadata(log *types.RawLog, event *types.DecodedEvent) {
	event.LogIndex = log.LogIndex
	event.BlockNumber = log.BlockNumber
	event.TransactionIndex = log.TransactionIndex
}

func topicStrings(topics []common.Hash) []string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		out = append(out, topic.Hex())
	}
	return out
}
