package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"rpcfuse/internal/cache"
	"rpcfuse/internal/client"
	"rpcfuse/internal/coalesce"
	"rpcfuse/internal/config"
	"rpcfuse/internal/descriptor"
	"rpcfuse/internal/transport/ws"
	"rpcfuse/internal/wire"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.json", "path to config file")
	resource := flag.String("resource", "greetings", "outbound resource to retrieve from")
	inboundName := flag.String("inbound", "cli", "inbound operation name for policy resolution")
	flag.Parse()

	keys := flag.Args()
	if len(keys) == 0 {
		fmt.Fprintln(os.Stderr, "usage: rpcfuse [flags] key [key...]")
		os.Exit(2)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Basic logger for startup errors
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel)
	logger.Info().
		Str("config", *configPath).
		Str("endpoint", cfg.Endpoint).
		Int("policies", len(cfg.Policies)).
		Msg("starting rpcfuse")

	// Compile policy rules
	bundle, err := cfg.BuildBundle()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build policy bundle")
	}

	// Connect transport
	dialCtx, cancel := context.WithTimeout(context.Background(), cfg.GetDialTimeoutDuration())
	transport, err := ws.Dial(dialCtx, cfg.Endpoint, cfg.GetDialTimeoutDuration(), logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect transport")
	}
	defer transport.Close()

	// Create client
	opts := []client.Option{}
	if cfg.IsCacheEnabled() {
		respCache, err := cache.New(cfg.Cache.Size, cfg.Cache.GetTTLDuration())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cache")
		}
		defer respCache.Close()
		opts = append(opts, client.WithCache(respCache))
	}
	cli := client.New(bundle, transport, logger, opts...)

	// Issue one retrieval per key inside a single coalescing window
	ctx := descriptor.NewContext(context.Background(), descriptor.Inbound{Name: *inboundName})
	window := cli.NewWindow(ctx)

	calls := make(map[string]*coalesce.Call, len(keys))
	for _, key := range keys {
		calls[key] = window.Enqueue(wire.NewGet(*resource, key), nil)
	}
	window.Dispatch(ctx)

	for _, key := range keys {
		resp, err := calls[key].Wait(ctx)
		if err != nil {
			logger.Error().Err(err).Str("key", key).Msg("call failed")
			continue
		}
		fmt.Printf("%s\t%s\n", key, resp.Result)
	}

	for _, step := range window.Trace().Steps() {
		logger.Debug().Str("step", step).Msg("trace")
	}
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
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
