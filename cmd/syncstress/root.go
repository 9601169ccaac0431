// File: cmd/syncstress/root.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/momentics/hioload-sync/control"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "syncstress",
	Short: "Stress the fixed-block allocator and the listener dispatcher",
	Long: `syncstress runs concurrent load against the hioload-sync primitives.

Configuration precedence (highest first):
  1. command-line flags
  2. config file given with --config
  3. HIOLOAD_* environment variables
  4. built-in defaults`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(allocCmd, broadcastCmd)
}

func initConfig() {
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "syncstress: reading %s: %v\n", cfgFile, err)
	}
}

// loadConfig merges environment defaults with config file and flag values.
func loadConfig() (control.Config, *slog.Logger, error) {
	cfg, err := control.LoadConfig()
	if err != nil {
		return control.Config{}, nil, err
	}
	overrideString(&cfg.LogLevel, "log-level")
	overrideString(&cfg.LogFormat, "log-format")
	overrideInt(&cfg.ByteLimit, "byte-limit")
	overrideInt(&cfg.BlockSize, "block-size")
	overrideInt(&cfg.Workers, "workers")
	overrideInt(&cfg.Listeners, "listeners")
	overrideBool(&cfg.Mmap, "mmap")
	overrideBool(&cfg.PinWorkers, "pin")
	if err := cfg.Validate(); err != nil {
		return control.Config{}, nil, err
	}
	return cfg, cfg.NewLogger(os.Stderr), nil
}

func overrideString(dst *string, key string) {
	if v := viper.GetString(key); viper.IsSet(key) && v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func overrideBool(dst *bool, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

// report logs a registry snapshot with stable key order.
func report(logger *slog.Logger, reg *control.MetricsRegistry) {
	snap := reg.GetSnapshot()
	for _, k := range slices.Sorted(maps.Keys(snap)) {
		logger.Info("metric", slog.String("name", k), slog.Any("value", snap[k]))
	}
}
