// Package servecmder provides the serve command, which runs the HTTP API
// and the MCP endpoint over one engine.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/api"
	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/config"
	"github.com/papercomputeco/gauntlet/pkg/logger"
)

type serveCommander struct {
	flags      config.FlagSet
	listen     string
	storage    string
	sqlitePath string
	dsn        string
	target     string
	strategist string
	strict     bool
	vectorProv string
	vectorTgt  string
	embedProv  string
	embedTgt   string
	embedModel string
	embedDims  uint
	eventsProv string
	eventsTop  string
	noMCP      bool
	prettyLogs bool
	logFile    string

	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagTargetProvider,
	config.FlagStrategistProv,
	config.FlagStrict,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventStreamProv,
	config.FlagEventStreamTopic,
}

const serveLongDesc string = `Run the Gauntlet API server.

Serves the operation, conversation, payload and seed endpoints over HTTP,
an MCP endpoint at /mcp and Prometheus metrics at /metrics.

Flags override config.toml and GAUNTLET_* environment variables.

Examples:
  gauntlet serve
  gauntlet serve --listen :9000 --storage postgres --postgres-dsn postgres://...`

const serveShortDesc string = "Run the Gauntlet API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagStorageDriver, &cmder.storage)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagPostgresDSN, &cmder.dsn)
	config.AddStringFlag(cmd, cmder.flags, config.FlagTargetProvider, &cmder.target)
	config.AddStringFlag(cmd, cmder.flags, config.FlagStrategistProv, &cmder.strategist)
	config.AddBoolFlag(cmd, cmder.flags, config.FlagStrict, &cmder.strict)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embedTgt)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventStreamProv, &cmder.eventsProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventStreamTopic, &cmder.eventsTop)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP endpoint")
	cmd.Flags().BoolVar(&cmder.prettyLogs, "pretty", false, "Log human-readable lines instead of JSON")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	closeLog, err := c.setupLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	e, err := cmdutil.OpenEngine(cmd, c.logger, serveFlags...)
	if err != nil {
		return err
	}
	defer e.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr: e.Config.API.Listen,
		DisableMCP: c.noMCP,
	}, e, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// setupLogger builds the console logger and, with --log-file, fans it out
// to a JSON file.
func (c *serveCommander) setupLogger(cmd *cobra.Command) (func(), error) {
	debug, _ := cmd.Flags().GetBool(cmdutil.FlagDebug)
	c.logger = logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(!c.prettyLogs),
		logger.WithPretty(c.prettyLogs),
		logger.WithWriter(cmd.ErrOrStderr()),
	)
	if c.logFile == "" {
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	c.logger = logger.Fanout(c.logger, logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	))
	return func() { f.Close() }, nil
}
