package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"parcel-tracking/internal/cli"
)

// LoadCLIConfigWithViper loads CLI configuration using Viper
func LoadCLIConfigWithViper(v *viper.Viper) (*cli.Config, error) {
	setCLIDefaults(v)
	setupCLIEnvBinding(v)

	if err := loadCLIConfigFile(v); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := &cli.Config{}
	if err := unmarshalCLIConfig(v, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setCLIDefaults sets default values for CLI configuration
func setCLIDefaults(v *viper.Viper) {
	defaults := cli.DefaultConfig()
	v.SetDefault("server_url", defaults.ServerURL)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("quiet", defaults.Quiet)
	v.SetDefault("no_color", defaults.NoColor)
	v.SetDefault("request_timeout", defaults.RequestTimeout.String())
}

// setupCLIEnvBinding sets up environment variable binding for CLI configuration
func setupCLIEnvBinding(v *viper.Viper) {
	v.SetEnvPrefix("PARCEL_TRACKER")
	v.AutomaticEnv()

	envBindings := map[string]string{
		"server_url":      "SERVER",
		"format":          "FORMAT",
		"quiet":           "QUIET",
		"no_color":        "NO_COLOR",
		"request_timeout": "TIMEOUT",
	}

	for configKey, envSuffix := range envBindings {
		v.BindEnv(configKey, "PARCEL_TRACKER_"+envSuffix)
	}

	// Honor the NO_COLOR convention regardless of prefix
	v.BindEnv("no_color", "NO_COLOR")
}

// loadCLIConfigFile loads configuration file if it exists
func loadCLIConfigFile(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME")
		v.SetConfigName(".parcel-tracker")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, only fail on real read errors
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

// unmarshalCLIConfig copies Viper values into the CLI Config struct
func unmarshalCLIConfig(v *viper.Viper, config *cli.Config) error {
	config.ServerURL = v.GetString("server_url")
	config.Format = v.GetString("format")
	config.Quiet = v.GetBool("quiet")
	config.NoColor = v.GetBool("no_color")

	// Timeout accepts a duration string or bare seconds
	timeoutStr := v.GetString("request_timeout")
	if timeoutStr == "" {
		config.RequestTimeout = cli.DefaultConfig().RequestTimeout
		return nil
	}

	if duration, err := time.ParseDuration(timeoutStr); err == nil {
		config.RequestTimeout = duration
		return nil
	}

	seconds, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return fmt.Errorf("invalid request timeout: %s", timeoutStr)
	}
	if seconds <= 0 {
		return fmt.Errorf("request timeout must be positive, got %d seconds", seconds)
	}
	config.RequestTimeout = time.Duration(seconds) * time.Second

	return nil
}

// LoadCLIConfig loads CLI configuration using default Viper instance
func LoadCLIConfig() (*cli.Config, error) {
	v := viper.New()
	return LoadCLIConfigWithViper(v)
}

// LoadCLIConfigWithFile loads CLI configuration from a specific file
func LoadCLIConfigWithFile(configFile string) (*cli.Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	return LoadCLIConfigWithViper(v)
}
