package kgraph

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadClientConfigYAML loads a ClientConfig from a YAML file.
func LoadClientConfigYAML(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &ClientConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return config, nil
}

// ClientConfigFromEnv builds a ClientConfig from environment variables,
// loading a ".env" file first if one is present in the working directory
// (a missing .env is not an error; it simply means the process environment
// is used as-is).
//
// Recognized variables:
//   - KGRAPH_CLIENT_TYPE
//   - KGRAPH_MODEL_ID
//   - KGRAPH_API_KEY
//   - KGRAPH_BASE_URL
//   - KGRAPH_MAX_WORKERS
//   - KGRAPH_MAX_CHAR_BUFFER
//   - KGRAPH_BATCH_LENGTH
//   - KGRAPH_TEMPERATURE
//   - KGRAPH_TIMEOUT_SECONDS
//   - KGRAPH_MAX_PASSES
func ClientConfigFromEnv() ClientConfig {
	_ = godotenv.Load()

	config := ClientConfig{
		ClientType: os.Getenv("KGRAPH_CLIENT_TYPE"),
		ModelID:    os.Getenv("KGRAPH_MODEL_ID"),
		APIKey:     os.Getenv("KGRAPH_API_KEY"),
		BaseURL:    os.Getenv("KGRAPH_BASE_URL"),
	}

	if v := os.Getenv("KGRAPH_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxWorkers = n
		}
	}
	if v := os.Getenv("KGRAPH_MAX_CHAR_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxCharBuffer = n
		}
	}
	if v := os.Getenv("KGRAPH_BATCH_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.BatchLength = n
		}
	}
	if v := os.Getenv("KGRAPH_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Temperature = f
		}
	}
	if v := os.Getenv("KGRAPH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("KGRAPH_MAX_PASSES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxPasses = n
		}
	}

	return config
}
