package topicRegistry

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/evmkit/ethevent/pkg/types"
)

// ParseABI unmarshals a contract ABI JSON document into its entries.
func ParseABI(data []byte) ([]types.ABIEntry, error) {
	var entries []types.ABIEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, types.NewABIError("invalid ABI JSON: %v", err)
	}
	return entries, nil
}

// GetLogTopic computes the canonical 32 byte topic for a non-anonymous
// event entry: the keccak256 hash of its canonical signature string.
func GetLogTopic(event types.ABIEntry) (common.Hash, error) {
	signature, err := EventSignature(event)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(signature)), nil
}

// GetTopicMap builds the topic-to-schema map for a contract ABI. Anonymous
// events are skipped; any malformed entry fails the whole build. Two events
// with the same canonical signature collapse to one entry, last declaration
// wins.
func GetTopicMap(abi []types.ABIEntry) (types.TopicMap, error) {
	topicMap := make(types.TopicMap)
	for _, entry := range abi {
		if entry.Type == "" {
			return nil, types.NewABIError("invalid ABI: entry has no type")
		}
		if entry.Type != "event" || entry.Anonymous {
			continue
		}
		topic, err := GetLogTopic(entry)
		if err != nil {
			return nil, err
		}
		topicMap[topic] = &types.EventSchema{Name: entry.Name, Inputs: entry.Inputs}
	}
	return topicMap, nil
}

// MergeTopicMaps combines the topic maps of several contract ABIs into one
// lookup table for batch decoding. Later maps win on topic collisions.
func MergeTopicMaps(maps ...types.TopicMap) types.TopicMap {
	merged := make(types.TopicMap)
	for _, m := range maps {
		for topic, schema := range m {
			merged[topic] = schema
		}
	}
	return merged
}
