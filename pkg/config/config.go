package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Version is the version of the tool, set at build time.
var Version string

// Config top level struct representing the config for statetrie.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Default returns configuration with all defaults applied.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			DBConfiguration: defaultDBConfiguration(),
			LogEncoding:     "console",
			Trie: TrieConfiguration{
				HashAlgorithm:  DefaultHashAlgorithm,
				MaxSiblings:    DefaultMaxSiblings,
				ProofCacheSize: DefaultProofCacheSize,
			},
		},
	}
}

// Load attempts to load the config from the given path. Empty path means
// default configuration.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads config from the provided path.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Decode(configData)
}

// Decode parses YAML configuration applying defaults for missing fields.
func Decode(data []byte) (Config, error) {
	config := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}
