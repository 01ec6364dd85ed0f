// Package contracts embeds the event ABIs of well-known token standards.
// They serve as the CLI default when no contract ABI is supplied and as
// fixtures in tests.
package contracts

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pkg/errors"

	"github.com/evmkit/ethevent/pkg/topicRegistry"
	"github.com/evmkit/ethevent/pkg/types"
)

//go:embed abi/*.abi.json
var abis embed.FS

// GetContractAbi returns the parsed ABI entries for an embedded contract
// standard, e.g. "erc20" or "erc721".
func GetContractAbi(contractName string) ([]types.ABIEntry, error) {
	abiFile := fmt.Sprintf("abi/%s.abi.json", contractName)
	abiBytes, err := abis.ReadFile(abiFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read embedded ABI file %s", abiFile)
	}
	return topicRegistry.ParseABI(abiBytes)
}

// ListContracts returns the names of all embedded contract standards.
func ListContracts() ([]string, error) {
	files, err := fs.ReadDir(abis, "abi")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list embedded ABIs")
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(f.Name(), ".abi.json"))
	}
	return names, nil
}

// DefaultTopicMap merges the topic maps of every embedded standard into
// one lookup table. ERC-20 and ERC-721 share the Transfer and Approval
// signatures (they differ only in which arguments are indexed), so the
// merge keeps the last standard in name order for those topics.
func DefaultTopicMap() (types.TopicMap, error) {
	names, err := ListContracts()
	if err != nil {
		return nil, err
	}
	maps := make([]types.TopicMap, 0, len(names))
	for _, name := range names {
		entries, err := GetContractAbi(name)
		if err != nil {
			return nil, err
		}
		topicMap, err := topicRegistry.GetTopicMap(entries)
		if err != nil {
			return nil, err
		}
		maps = append(maps, topicMap)
	}
	return topicRegistry.MergeTopicMaps(maps...), nil
}
