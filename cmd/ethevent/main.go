package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/evmkit/ethevent/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "ethevent",
	Short: "Decode EVM event logs and transaction traces",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var configFile string

func init() {
	cobra.OnInitialize(initConfigIfPresent)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)
	rootCmd.PersistentFlags().String(config.ABIPath, "", "contract ABI JSON file (default: embedded ERC-20/ERC-721 ABIs)")
	rootCmd.PersistentFlags().Bool(config.AllowUndecoded, false, "emit placeholders for unknown events instead of failing")

	// setup sub commands
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(traceCmd)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfigIfPresent() {
	if configFile == "" {
		return
	}
	viper.SetConfigFile(configFile)
	fmt.Printf("Using config file: %s\n", configFile)
	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}
}

func main() {
	Execute()
}
