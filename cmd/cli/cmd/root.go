package cmd

import (
	"context"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cliapi "parcel-tracking/internal/cli"
	"parcel-tracking/internal/config"
)

var (
	serverURL  string
	format     string
	quiet      bool
	noColor    bool
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parcel-tracker",
	Short: "CLI client for the parcel tracking API",
	Long: `Parcel Tracker CLI looks up package tracking numbers through the
tracking server. It detects the carrier from the number's shape, scrapes the
carrier's tracking page, and falls back to probing every known carrier or to
the TrackingMore aggregator when direct scraping fails.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	fang.Execute(context.Background(), rootCmd)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "API server address")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "Output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (minimal output)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path")
}

// loadConfig builds the effective CLI configuration: file and environment
// via Viper, then flag overrides on top.
func loadConfig() (*cliapi.Config, error) {
	v := viper.New()
	if configFile != "" {
		if err := config.ValidateConfigFilePath(configFile); err != nil {
			return nil, err
		}
		v.SetConfigFile(configFile)
	}

	cfg, err := config.LoadCLIConfigWithViper(v)
	if err != nil {
		return nil, err
	}

	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if format != "" {
		cfg.Format = format
	}
	if quiet {
		cfg.Quiet = true
	}
	if noColor {
		cfg.NoColor = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// initializeClient sets up configuration, formatter, and API client
func initializeClient() (*cliapi.Config, *cliapi.OutputFormatter, *cliapi.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	formatter := cliapi.NewOutputFormatterWithColor(cfg.Format, cfg.Quiet, cfg.NoColor)
	client := cliapi.NewClientWithTimeout(cfg.ServerURL, cfg.RequestTimeout)

	// Test connectivity
	if err := client.HealthCheck(); err != nil {
		formatter.PrintError(err)
		return nil, nil, nil, err
	}

	return cfg, formatter, client, nil
}
