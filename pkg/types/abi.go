// Package types defines the data model shared by the decoding packages:
// contract ABI descriptions, raw logs and trace steps as returned by an
// Ethereum node, and the decoded event structures produced from them.
package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// ParameterSpec describes a single event input from a contract ABI.
// Components is populated only for tuple-typed parameters.
type ParameterSpec struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Indexed    bool            `json:"indexed,omitempty"`
	Components []ParameterSpec `json:"components,omitempty"`
}

// ABIEntry is one entry of a contract ABI. Only entries with Type "event"
// are relevant for topic derivation; the rest are carried through so a full
// contract ABI can be unmarshalled as []ABIEntry.
type ABIEntry struct {
	Type      string          `json:"type"`
	Name      string          `json:"name,omitempty"`
	Inputs    []ParameterSpec `json:"inputs"`
	Anonymous bool            `json:"anonymous,omitempty"`
}

// EventSchema is the decode-relevant part of a non-anonymous event
// definition. The input order matches declaration order; decoding relies on
// it to interleave indexed and unindexed values correctly.
type EventSchema struct {
	Name   string          `json:"name"`
	Inputs []ParameterSpec `json:"inputs"`
}

// TopicMap maps an event's canonical topic to its schema. Built once per
// ABI and read-only afterwards, so it may be shared across concurrent
// decode calls.
type TopicMap map[common.Hash]*EventSchema
