package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const EnvPrefix = "ETHEVENT"

// Flag names shared between the CLI and viper bindings.
const (
	Debug          = "debug"
	ABIPath        = "abi"
	AllowUndecoded = "allow-undecoded"
	InitialAddress = "initial-address"
)

// DecoderConfig is the runtime configuration of the ethevent CLI, resolved
// from flags, environment and an optional config file through viper.
type DecoderConfig struct {
	// Debug enables debug-level logging.
	Debug bool `mapstructure:"debug"`
	// ABIPath points at a contract ABI JSON file. Empty means the embedded
	// well-known ABIs are used.
	ABIPath string `mapstructure:"abi"`
	// AllowUndecoded emits placeholder events for unknown topics instead
	// of failing the batch.
	AllowUndecoded bool `mapstructure:"allow_undecoded"`
	// InitialAddress seeds address tracking for trace walking. Empty
	// disables tracking.
	InitialAddress string `mapstructure:"initial_address"`
}

func NewDecoderConfigFromViper() (*DecoderConfig, error) {
	cfg := &DecoderConfig{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *DecoderConfig) Validate() error {
	if c.InitialAddress != "" && !common.IsHexAddress(c.InitialAddress) {
		return fmt.Errorf("invalid initial address: %s", c.InitialAddress)
	}
	return nil
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}
