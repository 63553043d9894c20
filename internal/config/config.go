package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Node.RequestTimeout == 0 {
		cfg.Node.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Node.WSMessageTimeout == 0 {
		cfg.Node.WSMessageTimeout = DefaultWSMessageTimeout
	}
	if cfg.Node.WSPingInterval == 0 {
		cfg.Node.WSPingInterval = DefaultWSPingInterval
	}
	if cfg.Registry != nil {
		if cfg.Registry.LookupDelay == 0 {
			cfg.Registry.LookupDelay = DefaultLookupDelay
		}
		if cfg.Registry.Timeout == 0 {
			cfg.Registry.Timeout = DefaultRegistryTimeout
		}
	}
	if cfg.Transform != nil && cfg.Transform.Timeout == 0 {
		cfg.Transform.Timeout = DefaultTransformTimeout
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	if cfg.Node.URL == "" {
		return errors.New("node.url is required")
	}
	if len(cfg.Groups) == 0 {
		return errors.New("at least one contract group is required")
	}

	for i, group := range cfg.Groups {
		if len(group.Addresses) == 0 {
			return fmt.Errorf("group[%d]: at least one address is required", i)
		}
		for _, addr := range group.Addresses {
			if !common.IsHexAddress(addr) {
				return fmt.Errorf("group[%d]: invalid address %q", i, addr)
			}
		}
		if group.ABIFile == "" && len(group.Methods) == 0 && !group.AllReadable {
			return fmt.Errorf("group[%d]: needs methods, allReadable or an abiFile", i)
		}
		for j, method := range group.Methods {
			if method.Name == "" {
				return fmt.Errorf("group[%d].methods[%d]: name is required", i, j)
			}
		}
	}

	if cfg.HasTransform() {
		if _, err := os.Stat(cfg.Transform.Script); err != nil {
			return fmt.Errorf("transform script: %w", err)
		}
	}

	return nil
}
