package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as boolean or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as integer or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault returns environment variable as duration or default
func getEnvDurationOrDefault(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	
	// Parse default value
	duration, err := time.ParseDuration(defaultValue)
	if err != nil {
		return time.Hour // Fallback to 1 hour
	}
	return duration
}

// loadEnvFile loads environment variables from a .env file if it exists
func loadEnvFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		// .env file doesn't exist or can't be opened, which is fine
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		
		// Split on first '=' character
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		
		// Remove quotes if present
		if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
		   (strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
			value = value[1 : len(value)-1]
		}
		
		// Only set if not already set in environment
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// LoadEnvFile validates the path and then loads variables from the file.
// A missing file is not an error, only a rejected path is.
func LoadEnvFile(filename string) error {
	if err := validateEnvFilePath(filename); err != nil {
		return err
	}
	loadEnvFile(filename)
	return nil
}

// validateEnvFilePath rejects env file paths that traverse outside the
// working tree or carry an extension other than .env
func validateEnvFilePath(filename string) error {
	if filename == "" {
		return nil
	}
	if strings.Contains(filename, "..") {
		return fmt.Errorf("env file path cannot contain '..': %s", filename)
	}
	ext := filepath.Ext(filename)
	if ext != "" && ext != ".env" && !strings.HasPrefix(filepath.Base(filename), ".env") {
		return fmt.Errorf("env file must have .env extension: %s", filename)
	}
	return nil
}

// ValidateConfigFilePath rejects config file paths that traverse outside
// the working tree or use an extension the config loader cannot read.
// Absolute paths are allowed only under the current working directory.
func ValidateConfigFilePath(filename string) error {
	if filename == "" {
		return nil
	}
	if strings.Contains(filename, "..") {
		return fmt.Errorf("config file path cannot contain '..': %s", filename)
	}
	if filepath.IsAbs(filename) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot resolve working directory: %w", err)
		}
		if !strings.HasPrefix(filename, cwd+string(filepath.Separator)) {
			return fmt.Errorf("absolute config file path must be under %s: %s", cwd, filename)
		}
	}
	switch filepath.Ext(filename) {
	case "", ".yaml", ".yml", ".toml", ".json", ".env":
		return nil
	}
	if strings.HasPrefix(filepath.Base(filename), ".env") {
		return nil
	}
	return fmt.Errorf("unsupported config file extension: %s", filename)
}