package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenTraceLab/OpenTracePool/internal/config"
	"github.com/OpenTraceLab/OpenTracePool/internal/logging"
)

// cfg is loaded before every command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "otp",
	Short: "OpenTracePool - parametric footprint pool tools",
	Long: `OpenTracePool (otp) works with a pool of padstacks and packages:
  - inspect, check and re-parameterize packages
  - export pad tables and import KiCad footprints
  - index, search and pack the pool

Examples:
  otp info packages/sot23/package.json        # Show a package summary
  otp check                                   # Check every package in the pool
  otp apply sot23.json pad_width=1.2mm        # Apply parameters
  otp import-kicad SOT-23.kicad_mod           # Import a KiCad footprint
  otp pool search "tags:qfn"                  # Search the pool index`,
	Version:           "0.9.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .otp.yaml)")
	flags.String("pool", "", "pool directory (default .)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	flags.BoolP("verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("pool_path", flags.Lookup("pool"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".otp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("OTP")
	viper.AutomaticEnv()

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		c.LogLevel = "debug"
	}
	cfg = c
	slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))
	return nil
}
