package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/evmkit/ethevent/contracts"
	"github.com/evmkit/ethevent/pkg/config"
	"github.com/evmkit/ethevent/pkg/topicRegistry"
	"github.com/evmkit/ethevent/pkg/types"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Print the event topic map for a contract ABI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewDecoderConfigFromViper()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		topicMap, err := loadTopicMap(cfg)
		if err != nil {
			return err
		}
		return printJSON(topicMap)
	},
}

// loadTopicMap builds the topic map from the configured ABI file, falling
// back to the embedded well-known ABIs when none is given.
func loadTopicMap(cfg *config.DecoderConfig) (types.TopicMap, error) {
	if cfg.ABIPath == "" {
		return contracts.DefaultTopicMap()
	}
	raw, err := os.ReadFile(cfg.ABIPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read ABI file %s", cfg.ABIPath)
	}
	entries, err := topicRegistry.ParseABI(raw)
	if err != nil {
		return nil, err
	}
	return topicRegistry.GetTopicMap(entries)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
