// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.AI.MaxTokens != 0 {
		t.Errorf("MaxTokens = %d, want 0 so the provider default applies", cfg.AI.MaxTokens)
	}
	if cfg.Auth.NonceCapacity != 1000 {
		t.Errorf("NonceCapacity = %d, want 1000", cfg.Auth.NonceCapacity)
	}
	if cfg.Auth.NonceWindow != 300*time.Second {
		t.Errorf("NonceWindow = %s, want 5m0s", cfg.Auth.NonceWindow)
	}
	if cfg.MCP.CallTimeout != 30*time.Second || cfg.MCP.ListTimeout != 10*time.Second {
		t.Errorf("unexpected MCP timeouts: call=%s list=%s", cfg.MCP.CallTimeout, cfg.MCP.ListTimeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad transport", func(c *Config) { c.Server.TransportMode = "grpc" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad provider", func(c *Config) { c.AI.Provider = "gemini" }},
		{"bad tool choice", func(c *Config) { c.AI.ToolChoice = "none" }},
		{"negative max tokens", func(c *Config) { c.AI.MaxTokens = -1 }},
		{"empty hmac key", func(c *Config) { c.Auth.HMACKey = "" }},
		{"zero capacity", func(c *Config) { c.Auth.NonceCapacity = 0 }},
		{"zero window", func(c *Config) { c.Auth.NonceWindow = 0 }},
		{"stdio without command", func(c *Config) { c.MCP.Transport = "stdio" }},
		{"bad tool execution", func(c *Config) { c.Backend.ToolExecution = "hybrid" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("HMAC_KEY", "k3y")
	t.Setenv("MCP_ID", "client-7")
	t.Setenv("COMPANY_API_BASE", "http://corp:8080")
	t.Setenv("GITHUB_TOKEN", "ghp_x")
	t.Setenv("NONCE_WINDOW", "120")
	t.Setenv("TOOL_CALL_TIMEOUT", "5s")
	t.Setenv("MCP_ARGS", "toolserver --transport stdio")
	t.Setenv("SERVER_PORT", "9100")

	cfg := DefaultConfig()
	FromEnv(cfg)

	if cfg.Auth.HMACKey != "k3y" {
		t.Errorf("HMACKey = %q, want %q", cfg.Auth.HMACKey, "k3y")
	}
	if cfg.Corp.ClientID != "client-7" {
		t.Errorf("ClientID = %q, want %q", cfg.Corp.ClientID, "client-7")
	}
	if cfg.Corp.BaseURL != "http://corp:8080" {
		t.Errorf("BaseURL = %q", cfg.Corp.BaseURL)
	}
	if cfg.GitHub.Token != "ghp_x" {
		t.Errorf("Token = %q", cfg.GitHub.Token)
	}
	if cfg.Auth.NonceWindow != 120*time.Second {
		t.Errorf("NonceWindow = %s, want 2m0s", cfg.Auth.NonceWindow)
	}
	if cfg.MCP.CallTimeout != 5*time.Second {
		t.Errorf("CallTimeout = %s, want 5s", cfg.MCP.CallTimeout)
	}
	if len(cfg.MCP.Args) != 3 || cfg.MCP.Args[0] != "toolserver" {
		t.Errorf("Args = %v", cfg.MCP.Args)
	}
	if got := cfg.ListenAddr(RoleGateway); got != "0.0.0.0:9100" {
		t.Errorf("ListenAddr = %q", got)
	}
}

func TestListenAddrRoleDefaults(t *testing.T) {
	cfg := DefaultConfig()
	want := map[string]string{
		RoleGateway:    "0.0.0.0:9000",
		RoleToolServer: "0.0.0.0:9001",
		RoleBackend:    "0.0.0.0:9002",
		RoleCorpAPI:    "0.0.0.0:8080",
	}
	for role, addr := range want {
		if got := cfg.ListenAddr(role); got != addr {
			t.Errorf("ListenAddr(%s) = %q, want %q", role, got, addr)
		}
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9500
ai:
  model: gpt-4o
  tool_choice: auto
auth:
  nonce_capacity: 50
  nonce_window: 90s
mcp:
  endpoint: http://tools:9001
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := DefaultConfig()
	if err := FromFile(cfg, path); err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if cfg.Server.Port != 9500 {
		t.Errorf("Port = %d, want 9500", cfg.Server.Port)
	}
	if cfg.AI.Model != "gpt-4o" || cfg.AI.ToolChoice != "auto" {
		t.Errorf("AI = %+v", cfg.AI)
	}
	if cfg.Auth.NonceCapacity != 50 || cfg.Auth.NonceWindow != 90*time.Second {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.MCP.Endpoint != "http://tools:9001" {
		t.Errorf("Endpoint = %q", cfg.MCP.Endpoint)
	}
	// Untouched sections keep their defaults.
	if cfg.Store.DBPath != "database.db" {
		t.Errorf("DBPath = %q, want default", cfg.Store.DBPath)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DEVMCP_TEST_A=fromfile\nDEVMCP_TEST_B=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("DEVMCP_TEST_A", "fromenv")
	os.Unsetenv("DEVMCP_TEST_B")
	t.Cleanup(func() { os.Unsetenv("DEVMCP_TEST_B") })

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("DEVMCP_TEST_A"); got != "fromenv" {
		t.Errorf("DEVMCP_TEST_A = %q, want fromenv", got)
	}
	if got := os.Getenv("DEVMCP_TEST_B"); got != "fromfile" {
		t.Errorf("DEVMCP_TEST_B = %q, want fromfile", got)
	}
}
