// Command kvdbd is the process entrypoint: loads configuration, wires the
// key store, dispatcher, pub/sub hub, and TCP server together, and runs
// until an interrupt or SIGTERM triggers a graceful shutdown. Grounded on
// ws/main.go's flag -> automaxprocs -> LoadConfig -> NewServer -> Start ->
// signal-wait -> Shutdown sequence; CLI argument parsing here is narrowed to
// spec.md §6's single positional listen-address argument plus the
// `--config` flag for the line-oriented server config file, rather than
// the teacher's WebSocket-specific flag set.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"github.com/adred-codev/kvdb/internal/config"
	"github.com/adred-codev/kvdb/internal/dispatch"
	"github.com/adred-codev/kvdb/internal/logging"
	"github.com/adred-codev/kvdb/internal/metrics"
	"github.com/adred-codev/kvdb/internal/pubsub"
	"github.com/adred-codev/kvdb/internal/ratelimit"
	"github.com/adred-codev/kvdb/internal/rusage"
	"github.com/adred-codev/kvdb/internal/server"
	"github.com/adred-codev/kvdb/internal/serverconfig"
	"github.com/adred-codev/kvdb/internal/store"
)

func main() {
	var (
		debug      = flag.Bool("debug", false, "enable debug logging (overrides LOG_LEVEL)")
		configFile = flag.String("config", "", "path to a line-oriented server config file (spec.md §6)")
	)
	flag.Parse()

	bootLogger := logging.New(logging.Config{Level: logging.LevelInfo, Format: logging.FormatPretty})

	cfg, err := config.Load(&bootLogger)
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if *configFile != "" {
		cfg.ConfigFile = *configFile
	}

	logger := logging.New(logging.Config{
		Level:  logging.Level(cfg.LogLevel),
		Format: logging.Format(cfg.LogFormat),
	})
	cfg.LogConfig(logger)

	databaseCount := cfg.DatabaseCount
	addr := cfg.Addr
	if cfg.ConfigFile != "" {
		fileCfg := loadServerConfigFile(cfg.ConfigFile, logger)
		databaseCount = fileCfg.Databases
		addr = fileCfg.Bind + ":" + strconv.Itoa(fileCfg.Port)
	}
	if flag.NArg() > 0 {
		addr = flag.Arg(0)
	}

	reg := metrics.New()
	dbs := store.NewDatabases(databaseCount, cfg.ShardCount)
	hub := pubsub.NewHub()
	disp := dispatch.New(reg)
	limiter := ratelimit.New(cfg.CommandRateRPS, cfg.CommandBurst)
	sampler := rusage.New(cfg.MetricsInterval, logger)
	purger := store.NewPurger(dbs, cfg.PurgeInterval, logger)

	srv := server.New(server.Config{
		Addr:           addr,
		MaxConnections: cfg.MaxConnections,
	}, dbs, hub, disp, limiter, sampler, reg, logger)

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}

	go sampler.Run(srv.Context())
	go purger.Run(srv.Context())
	go serveMetrics(srv.Context(), cfg.DebugAddr, reg, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutdown signal received")
	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
		os.Exit(1)
	}
}

// serveMetrics mounts the Prometheus /metrics handler on its own debug
// listener, matching ws/server.go's promhttp.Handler() mount but on a
// dedicated port rather than sharing the protocol listener, since this
// server's main port speaks the binary wire protocol, not HTTP.
func serveMetrics(ctx context.Context, addr string, reg *metrics.Registry, logger zerolog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("debug metrics listener failed")
	}
}

func loadServerConfigFile(path string, logger zerolog.Logger) serverconfig.ServerConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("could not read server config file, using defaults")
		return serverconfig.Default()
	}
	directives, err := serverconfig.Parse(string(data))
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("could not parse server config file, using defaults")
		return serverconfig.Default()
	}
	cfg, err := serverconfig.Decode(directives)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("invalid server config file, using defaults")
		return serverconfig.Default()
	}
	return cfg
}
