package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RawLog is one event log as returned by eth_getTransactionReceipt. The
// hexutil and common types normalize hex-string input to their canonical
// byte representation during JSON unmarshalling; callers constructing logs
// programmatically fill the byte forms directly.
type RawLog struct {
	Address          common.Address  `json:"address"`
	Topics           []common.Hash   `json:"topics"`
	Data             hexutil.Bytes   `json:"data"`
	LogIndex         *hexutil.Uint64 `json:"logIndex,omitempty"`
	BlockNumber      *hexutil.Uint64 `json:"blockNumber,omitempty"`
	TransactionIndex *hexutil.Uint64 `json:"transactionIndex,omitempty"`
}

// DecodedField is one decoded event argument. Decoded is false when the
// indexed encoding could not be resolved to a scalar, in which case Value
// holds the raw topic word as a 0x hex string.
type DecodedField struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Value      interface{}     `json:"value"`
	Decoded    bool            `json:"decoded"`
	Components []ParameterSpec `json:"components,omitempty"`
}

// DecodedEvent is the result of decoding one log. A fully decoded event
// carries its name and per-field data; an undecoded placeholder (Decoded
// false, empty Name) carries the raw topics and payload instead. Address is
// the EIP-55 checksummed emitter, or empty when the trace walker ran
// without address tracking. The metadata pointers are copied through from
// the source log when present.
type DecodedEvent struct {
	Name             string          `json:"name"`
	Address          string          `json:"address"`
	Decoded          bool            `json:"decoded"`
	Data             []DecodedField  `json:"data"`
	Topics           []string        `json:"topics,omitempty"`
	RawData          string          `json:"rawData,omitempty"`
	LogIndex         *hexutil.Uint64 `json:"logIndex,omitempty"`
	BlockNumber      *hexutil.Uint64 `json:"blockNumber,omitempty"`
	TransactionIndex *hexutil.Uint64 `json:"transactionIndex,omitempty"`
}

// MarshalJSON renders the event in the receipt-decoder wire shape: "name"
// and "address" are null rather than empty strings when unset, and the
// "data" key carries either the decoded field list or, for undecoded
// placeholders, the raw payload hex string alongside the raw topics.
func (e DecodedEvent) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"decoded": e.Decoded,
	}
	if e.Name != "" {
		out["name"] = e.Name
	} else {
		out["name"] = nil
	}
	if e.Address != "" {
		out["address"] = e.Address
	} else {
		out["address"] = nil
	}
	if e.Decoded {
		out["data"] = e.Data
	} else {
		out["data"] = e.RawData
		out["topics"] = e.Topics
	}
	if e.LogIndex != nil {
		out["logIndex"] = *e.LogIndex
	}
	if e.BlockNumber != nil {
		out["blockNumber"] = *e.BlockNumber
	}
	if e.TransactionIndex != nil {
		out["transactionIndex"] = *e.TransactionIndex
	}
	return json.Marshal(out)
}
