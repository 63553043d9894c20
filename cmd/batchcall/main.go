package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"batchcall/internal/abicache"
	"batchcall/internal/config"
	"batchcall/internal/contract"
	"batchcall/internal/engine"
	"batchcall/internal/nodeclient"
	"batchcall/internal/plugin"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.json", "path to config file")
	blockPin := flag.Int64("block", 0, "pin all calls to this block height (0 = latest)")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Basic logger for startup errors
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel)
	logger.Debug().
		Str("config", *configPath).
		Str("node", cfg.Node.URL).
		Int("groups", len(cfg.Groups)).
		Msg("starting batchcall")

	// Build the ABI store
	var store abicache.Store
	if cfg.ABIStore != nil && cfg.ABIStore.Directory != "" {
		fileStore, err := abicache.NewFileStore(cfg.ABIStore.Directory)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open ABI store")
		}
		store = fileStore
	} else {
		store = abicache.NewMemoryStore()
	}

	// Build the interface cache, with registry fallback when configured
	var registry *abicache.RegistryClient
	var lookupDelay time.Duration
	if cfg.HasRegistry() {
		registry = abicache.NewRegistryClient(cfg.Registry.URL, cfg.Registry.APIKey, cfg.Registry.GetTimeoutDuration())
		lookupDelay = cfg.Registry.GetLookupDelayDuration()
	}
	cache, err := abicache.New(store, registry, lookupDelay, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create ABI cache")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Node.GetRequestTimeoutDuration())
	defer cancel()

	// Connect to the node
	caller, closeConn, err := nodeclient.Dial(ctx, cfg.Node.URL,
		cfg.Node.GetWSMessageTimeoutDuration(), cfg.Node.GetWSPingIntervalDuration(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to node")
	}
	defer closeConn()

	groups, err := buildGroups(cfg.Groups)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build contract groups")
	}

	eng := engine.New(caller, cache, engine.Options{
		Simplify:         cfg.Simplify,
		GroupByNamespace: cfg.GroupByNamespace,
		LogExecution:     cfg.LogExecution,
	}, logger)

	var pin *big.Int
	if *blockPin > 0 {
		pin = big.NewInt(*blockPin)
	}

	result, err := eng.Execute(ctx, groups, pin)
	if err != nil {
		logger.Fatal().Err(err).Msg("execution failed")
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode result")
	}

	// Apply the transform script, if configured
	if cfg.HasTransform() {
		transform, err := plugin.LoadTransform(cfg.Transform.Script, cfg.Transform.GetTimeoutDuration(), logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load transform script")
		}
		output, err = transform.Apply(output)
		if err != nil {
			logger.Fatal().Err(err).Msg("transform failed")
		}
	}

	fmt.Println(string(output))
}

// buildGroups converts config groups into engine group specs
func buildGroups(groupConfigs []config.GroupConfig) ([]contract.GroupSpec, error) {
	groups := make([]contract.GroupSpec, 0, len(groupConfigs))
	for i, gc := range groupConfigs {
		group := contract.GroupSpec{
			Namespace:   gc.Namespace,
			AllReadable: gc.AllReadable,
		}

		if gc.ABIFile != "" {
			data, err := os.ReadFile(gc.ABIFile)
			if err != nil {
				return nil, fmt.Errorf("group[%d]: %w", i, err)
			}
			desc, err := contract.ParseDescriptor(data)
			if err != nil {
				return nil, fmt.Errorf("group[%d]: %w", i, err)
			}
			group.Descriptor = desc
		}

		for _, addr := range gc.Addresses {
			group.Addresses = append(group.Addresses, common.HexToAddress(addr))
		}
		for _, mc := range gc.Methods {
			group.Methods = append(group.Methods, contract.MethodSpec{Name: mc.Name, Args: mc.Args})
		}

		groups = append(groups, group)
	}
	return groups, nil
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
