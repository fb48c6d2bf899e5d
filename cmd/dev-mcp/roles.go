// SPDX-License-Identifier: AGPL-3.0-only
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hli-yohan-lee/dev-mcp/internal/agent"
	"github.com/hli-yohan-lee/dev-mcp/internal/auth"
	"github.com/hli-yohan-lee/dev-mcp/internal/config"
	"github.com/hli-yohan-lee/dev-mcp/internal/corp"
	"github.com/hli-yohan-lee/dev-mcp/internal/executor"
	"github.com/hli-yohan-lee/dev-mcp/internal/github"
	"github.com/hli-yohan-lee/dev-mcp/internal/jsonrpc"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/mcpclient"
	"github.com/hli-yohan-lee/dev-mcp/internal/pdfdoc"
	"github.com/hli-yohan-lee/dev-mcp/internal/scheduler"
	"github.com/hli-yohan-lee/dev-mcp/internal/server"
	"github.com/hli-yohan-lee/dev-mcp/internal/store"
)

const seedTimeout = 30 * time.Second

func runToolServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	exec, cleanup, err := newToolExecutor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ts := server.NewToolServer(exec, jsonrpc.ServerInfo{Name: cfg.Server.Name, Version: cfg.Server.Version}, cfg.Server.CORSOrigins, logger)
	if cfg.Server.TransportMode == "stdio" {
		logger.Infof("Tool server listening on stdio (tools via %s)", cfg.Backend.ToolExecution)
		return ts.ServeStdio(ctx)
	}
	addr := cfg.ListenAddr(config.RoleToolServer)
	logger.Infof("Tool server listening on %s (tools via %s)", addr, cfg.Backend.ToolExecution)
	return server.Serve(ctx, addr, ts.Handler(), logger)
}

func runBackend(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	backend, cleanup, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := cfg.ListenAddr(config.RoleBackend)
	logger.Infof("Backend listening on %s", addr)
	return server.Serve(ctx, addr, server.NewBackendServer(backend, cfg.Server.Version, cfg.Server.CORSOrigins, logger).Handler(), logger)
}

func runGateway(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	client := newToolClient(cfg, logger)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warnf("Closing tool client: %v", err)
		}
	}()

	o := agent.NewOrchestrator(agent.NewProviderFactory(cfg.AI), client, cfg.AI, logger)

	var corpClient server.CorpDispatcher
	if cfg.Corp.BaseURL != "" {
		corpClient = corp.NewClient(cfg.Corp.BaseURL, auth.NewSigner(cfg.Auth.HMACKey, cfg.Corp.ClientID), cfg.Corp.Timeout, logger)
	}

	addr := cfg.ListenAddr(config.RoleGateway)
	logger.Infof("Gateway listening on %s (tool server %s via %s)", addr, toolServerTarget(cfg), cfg.MCP.Transport)
	return server.Serve(ctx, addr, server.NewGatewayServer(o, client, corpClient, cfg.Server.CORSOrigins, logger).Handler(), logger)
}

func runCorpAPI(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	nonces, cleanup, err := newNonceStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sched := scheduler.NewScheduler(logger)
	if err := sched.ScheduleNonceSweep(cfg.Auth.SweepSchedule, nonces); err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()

	var chat *corp.Chat
	if provider, err := agent.NewProviderFactory(cfg.AI)(""); err != nil {
		logger.Warnf("Chat disabled: %v", err)
	} else {
		chat = corp.NewChat(provider, cfg.AI.Model, logger)
	}

	a := auth.NewAuthenticator(cfg.Auth.HMACKey, nonces, auth.WithSkew(cfg.Auth.NonceWindow))
	addr := cfg.ListenAddr(config.RoleCorpAPI)
	logger.Infof("Corporate API listening on %s", addr)
	return server.Serve(ctx, addr, server.NewCorpServer(a, chat, cfg.Server.CORSOrigins, logger, server.WithNonceSweeps(sched)).Handler(), logger)
}

// newBackend opens and seeds the record store and assembles the
// collaborators behind the tools.
func newBackend(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*executor.Backend, func(), error) {
	records, err := store.NewSQLiteStore(cfg.Store.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open record store: %w", err)
	}
	seedCtx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()
	if err := records.Seed(seedCtx); err != nil {
		_ = records.Close()
		return nil, nil, fmt.Errorf("seed record store: %w", err)
	}

	fetcher := github.NewFetcher(logger, github.WithBaseURL(cfg.GitHub.BaseURL))
	backend := executor.NewBackend(pdfdoc.NewExtractor(cfg.Backend.PDFStoragePath), records, fetcher, logger)
	cleanup := func() {
		if err := records.Close(); err != nil {
			logger.Warnf("Closing record store: %v", err)
		}
	}
	return backend, cleanup, nil
}

// newToolExecutor runs tools in-process or forwards them to the backend,
// resolving GitHub credential placeholders either way.
func newToolExecutor(ctx context.Context, cfg *config.Config, logger *logging.Logger) (executor.Executor, func(), error) {
	if cfg.Backend.ToolExecution == "remote" {
		remote := executor.NewRemote(cfg.Backend.Endpoint, cfg.MCP.CallTimeout, logger)
		return executor.WithCredentials(remote, cfg.GitHub), func() {}, nil
	}
	backend, cleanup, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return executor.WithCredentials(executor.NewLocal(backend), cfg.GitHub), cleanup, nil
}

func newToolClient(cfg *config.Config, logger *logging.Logger) mcpclient.Client {
	opts := mcpclient.Options{ListTimeout: cfg.MCP.ListTimeout, CallTimeout: cfg.MCP.CallTimeout}
	if cfg.MCP.Transport == "stdio" {
		return mcpclient.NewStdioClient(cfg.MCP.Command, cfg.MCP.Args, opts, logger)
	}
	return mcpclient.NewHTTPClient(cfg.MCP.Endpoint, opts, logger)
}

func toolServerTarget(cfg *config.Config) string {
	if cfg.MCP.Transport == "stdio" {
		return cfg.MCP.Command
	}
	return cfg.MCP.Endpoint
}

// newNonceStore returns the shared Redis store when configured, otherwise
// the bounded in-memory store.
func newNonceStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (auth.NonceStore, func(), error) {
	if cfg.Auth.RedisURL == "" {
		nonces, err := auth.NewMemoryNonceStore(cfg.Auth.NonceCapacity, cfg.Auth.NonceWindow)
		if err != nil {
			return nil, nil, err
		}
		return nonces, func() {}, nil
	}

	nonces, err := auth.NewRedisNonceStore(cfg.Auth.RedisURL, cfg.Auth.NonceWindow)
	if err != nil {
		return nil, nil, err
	}
	if err := nonces.Ping(ctx); err != nil {
		_ = nonces.Close()
		return nil, nil, fmt.Errorf("connect to nonce store: %w", err)
	}
	logger.Infof("Using the Redis nonce store")
	return nonces, func() { _ = nonces.Close() }, nil
}
