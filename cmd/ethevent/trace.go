package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/evmkit/ethevent/pkg/config"
	"github.com/evmkit/ethevent/pkg/logger"
	"github.com/evmkit/ethevent/pkg/traceWalker"
	"github.com/evmkit/ethevent/pkg/types"
)

var traceCmd = &cobra.Command{
	Use:   "trace <trace.json>",
	Short: "Extract and decode events from a transaction trace",
	Long: "Extract and decode the events fired during a transaction, including reverted " +
		"ones, from a debug_traceTransaction result. The input file holds either the " +
		"full trace object or a bare structLogs array.",
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
		steps, err := readTrace(args[0])
		if err != nil {
			return err
		}

		walker := traceWalker.NewWalker(topicMap, l)
		events, err := walker.DecodeTraceTransaction(steps, cfg.AllowUndecoded, cfg.InitialAddress)
		if err != nil {
			return err
		}
		return printJSON(events)
	},
}

func init() {
	traceCmd.Flags().String(config.InitialAddress, "", "address called at the trace root; enables address tracking")
	viper.BindPFlag(config.KebabToSnakeCase(config.InitialAddress), traceCmd.Flags().Lookup(config.InitialAddress)) //nolint:errcheck
	viper.BindEnv(config.KebabToSnakeCase(config.InitialAddress))                                                   //nolint:errcheck
}

func readTrace(path string) ([]*types.TraceStep, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	var steps []*types.TraceStep
	if err := json.Unmarshal(raw, &steps); err == nil {
		return steps, nil
	}
	var trace struct {
		StructLogs []*types.TraceStep `json:"structLogs"`
	}
	if err := json.Unmarshal(raw, &trace); err != nil {
		return nil, errors.Wrapf(err, "%s is neither a trace nor a structLogs array", path)
	}
	return trace.StructLogs, nil
}
