package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/evmkit/ethevent/pkg/config"
	"github.com/evmkit/ethevent/pkg/logDecoder"
	"github.com/evmkit/ethevent/pkg/logger"
	"github.com/evmkit/ethevent/pkg/types"
)

var logsCmd = &cobra.Command{
	Use:   "logs <receipt.json>",
	Short: "Decode the event logs of a transaction receipt",
	Long: "Decode the event logs of a transaction receipt. The input file holds either " +
		"an eth_getTransactionReceipt result or a bare logs array.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewDecoderConfigFromViper()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
		if err != nil {
			return err
		}

		topicMap, err := loadTopicMap(cfg)
		if err != nil {
			return err
		}
		logs, err := readLogs(args[0])
		if err != nil {
			return err
		}

		decoder := logDecoder.NewDecoder(topicMap, l)
		events, err := decoder.DecodeLogs(logs, cfg.AllowUndecoded)
		if err != nil {
			return err
		}
		return printJSON(events)
	},
}

func readLogs(path string) ([]*types.RawLog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	var logs []*types.RawLog
	if err := json.Unmarshal(raw, &logs); err == nil {
		return logs, nil
	}
	var receipt struct {
		Logs []*types.RawLog `json:"logs"`
	}
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, errors.Wrapf(err, "%s is neither a receipt nor a logs array", path)
	}
	return receipt.Logs, nil
}
