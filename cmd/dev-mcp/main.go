// SPDX-License-Identifier: AGPL-3.0-only
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hli-yohan-lee/dev-mcp/internal/config"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
)

// flags holds the command-line overrides shared by every role
type flags struct {
	configFile string
	envFile    string
	address    string
	port       int
	transport  string
	logLevel   string
	logFile    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:          "dev-mcp",
		Short:        "Developer assistant services: agent gateway, MCP tool server, backend and corporate API",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "Path to a YAML configuration file")
	pf.StringVar(&f.envFile, "env-file", ".env", "Path to a dotenv file loaded before the environment is read")
	pf.StringVar(&f.address, "address", "", "The address to bind the server to")
	pf.IntVar(&f.port, "port", 0, "The port to bind the server to (default: role port)")
	pf.StringVar(&f.logLevel, "log-level", "", "Logging level: debug, info, warn, error, fatal")
	pf.StringVar(&f.logFile, "log-file", "", "Log file path (default: stderr)")

	toolserver := roleCommand(f, config.RoleToolServer, "Serve the MCP tools over JSON-RPC or stdio", runToolServer)
	toolserver.Flags().StringVar(&f.transport, "transport", "", "Transport mode: http or stdio")

	root.AddCommand(
		roleCommand(f, config.RoleGateway, "Serve the agent gateway", runGateway),
		toolserver,
		roleCommand(f, config.RoleBackend, "Serve the collaborator REST API", runBackend),
		roleCommand(f, config.RoleCorpAPI, "Serve the HMAC-signed corporate API", runCorpAPI),
		versionCommand(),
	)
	return root
}

type roleFunc func(ctx context.Context, cfg *config.Config, logger *logging.Logger) error

func roleCommand(f *flags, role, short string, run roleFunc) *cobra.Command {
	return &cobra.Command{
		Use:   role,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			if role != config.RoleToolServer && cfg.Server.TransportMode == "stdio" {
				return fmt.Errorf("%s does not support the stdio transport", role)
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			logger = logger.WithField("role", role)
			logging.SetDefaultLogger(logger)

			if cfg.Auth.HMACKey == config.DefaultHMACKey && (role == config.RoleGateway || role == config.RoleCorpAPI) {
				logger.Warnf("HMAC_KEY is not set; using the development signing key")
			}

			ctx, cancel := signalContext(cmd.Context(), logger)
			defer cancel()
			return run(ctx, cfg, logger)
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := config.DefaultConfig()
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", cfg.Server.Name, cfg.Server.Version)
		},
	}
}

// loadConfig layers defaults, the dotenv file, the YAML file, the
// environment and finally the command-line flags.
func loadConfig(f *flags) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if err := config.LoadDotEnv(f.envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", f.envFile, err)
	}
	if f.configFile != "" {
		if err := config.FromFile(cfg, f.configFile); err != nil {
			return nil, err
		}
	}
	config.FromEnv(cfg)
	applyFlags(cfg, f)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, f *flags) {
	if f.address != "" {
		cfg.Server.Address = f.address
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}
	if f.transport != "" {
		cfg.Server.TransportMode = f.transport
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Logging.FilePath = f.logFile
	}
}

// newLogger logs to stderr, or to the configured file. stdout stays free
// for the stdio transport.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.FilePath != "" {
		return logging.FileLogger(cfg.Logging.FilePath, level)
	}
	return logging.New(logging.Options{Output: os.Stderr, Level: level}), nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context, logger *logging.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signalCh)
		select {
		case <-signalCh:
			logger.Infof("Received termination signal, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
