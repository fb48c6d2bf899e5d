// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"fmt"
	"strings"
	"time"
)

// Service roles. Each role is one process in the deployment.
const (
	RoleGateway    = "gateway"
	RoleToolServer = "toolserver"
	RoleBackend    = "backend"
	RoleCorpAPI    = "corpapi"
)

// DefaultHMACKey is the development signing secret. Production deployments
// must override it through HMAC_KEY.
const DefaultHMACKey = "supersecret"

// Config holds the configuration for every service role.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	AI      AIConfig      `yaml:"ai"`
	Auth    AuthConfig    `yaml:"auth"`
	MCP     MCPConfig     `yaml:"mcp"`
	Backend BackendConfig `yaml:"backend"`
	Store   StoreConfig   `yaml:"store"`
	GitHub  GitHubConfig  `yaml:"github"`
	Corp    CorpConfig    `yaml:"corp"`
}

// ServerConfig holds the listener settings shared by all roles.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Address string `yaml:"address"`
	// Port 0 selects the role default (see DefaultPort).
	Port int `yaml:"port"`
	// TransportMode is "http" or "stdio". Only the tool server supports stdio.
	TransportMode string `yaml:"transport"`
	// CORSOrigins are the browser origins allowed to call the HTTP APIs.
	CORSOrigins []string `yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file"`
}

// AIConfig holds LLM provider settings.
type AIConfig struct {
	Provider        string `yaml:"provider"`
	APIKey          string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	// ToolChoice is "auto" or "required" for single-shot answers.
	ToolChoice string `yaml:"tool_choice"`
	// MaxTokens caps each completion; 0 leaves it to the provider.
	MaxTokens int `yaml:"max_tokens"`
}

// AuthConfig holds request-signing settings.
type AuthConfig struct {
	HMACKey       string        `yaml:"-"`
	NonceCapacity int           `yaml:"nonce_capacity"`
	NonceWindow   time.Duration `yaml:"nonce_window"`
	// SweepSchedule is an optional cron expression for a periodic nonce sweep.
	SweepSchedule string `yaml:"sweep_schedule"`
	// RedisURL selects the shared Redis nonce store when set.
	RedisURL string `yaml:"redis_url"`
}

// MCPConfig describes how the gateway reaches the tool server.
type MCPConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Transport   string        `yaml:"transport"`
	Command     string        `yaml:"command"`
	Args        []string      `yaml:"args"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	ListTimeout time.Duration `yaml:"list_timeout"`
}

// BackendConfig describes the collaborator backend and how tools reach it.
type BackendConfig struct {
	Endpoint string `yaml:"endpoint"`
	// ToolExecution is "local" (in-process collaborators) or "remote"
	// (forward to the backend over HTTP).
	ToolExecution  string `yaml:"tool_execution"`
	PDFStoragePath string `yaml:"pdf_storage_path"`
}

// StoreConfig holds record store settings.
type StoreConfig struct {
	DBPath string `yaml:"db_path"`
}

// GitHubConfig holds the credentials substituted for tool placeholders.
type GitHubConfig struct {
	Username string `yaml:"username"`
	Token    string `yaml:"-"`
	BaseURL  string `yaml:"base_url"`
}

// CorpConfig describes the signed corporate API peer.
type CorpConfig struct {
	BaseURL  string        `yaml:"base_url"`
	ClientID string        `yaml:"client_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:          "dev-mcp",
			Version:       "2.0.0",
			Address:       "0.0.0.0",
			TransportMode: "http",
			CORSOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		AI: AIConfig{
			Provider:   "openai",
			Model:      "gpt-5-mini",
			ToolChoice: "required",
		},
		Auth: AuthConfig{
			HMACKey:       DefaultHMACKey,
			NonceCapacity: 1000,
			NonceWindow:   300 * time.Second,
		},
		MCP: MCPConfig{
			Endpoint:    "http://localhost:9001",
			Transport:   "http",
			CallTimeout: 30 * time.Second,
			ListTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			Endpoint:       "http://localhost:9002",
			ToolExecution:  "local",
			PDFStoragePath: "pdfs",
		},
		Store: StoreConfig{
			DBPath: "database.db",
		},
		GitHub: GitHubConfig{
			Username: "hli.yohan.lee",
		},
		Corp: CorpConfig{
			BaseURL:  "http://localhost:8080",
			ClientID: "mcp-gateway",
			Timeout:  30 * time.Second,
		},
	}
}

// DefaultPort returns the listen port used by a role when none is configured.
func DefaultPort(role string) int {
	switch role {
	case RoleGateway:
		return 9000
	case RoleToolServer:
		return 9001
	case RoleBackend:
		return 9002
	case RoleCorpAPI:
		return 8080
	default:
		return 0
	}
}

// ListenAddr returns host:port for the role.
func (c *Config) ListenAddr(role string) string {
	port := c.Server.Port
	if port == 0 {
		port = DefaultPort(role)
	}
	return fmt.Sprintf("%s:%d", c.Server.Address, port)
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if err := oneOf("transport mode", c.Server.TransportMode, "http", "stdio"); err != nil {
		return err
	}
	if err := oneOf("log level", strings.ToLower(c.Logging.Level), "debug", "info", "warn", "error", "fatal"); err != nil {
		return err
	}
	if err := oneOf("AI provider", strings.ToLower(c.AI.Provider), "openai", "anthropic"); err != nil {
		return err
	}
	if err := oneOf("AI tool choice", c.AI.ToolChoice, "auto", "required"); err != nil {
		return err
	}
	if c.AI.MaxTokens < 0 {
		return fmt.Errorf("AI max tokens must not be negative, got %d", c.AI.MaxTokens)
	}
	if c.Auth.HMACKey == "" {
		return fmt.Errorf("HMAC key must not be empty")
	}
	if c.Auth.NonceCapacity <= 0 {
		return fmt.Errorf("nonce capacity must be positive, got %d", c.Auth.NonceCapacity)
	}
	if c.Auth.NonceWindow <= 0 {
		return fmt.Errorf("nonce window must be positive, got %s", c.Auth.NonceWindow)
	}
	if err := oneOf("MCP transport", c.MCP.Transport, "http", "stdio"); err != nil {
		return err
	}
	if c.MCP.Transport == "stdio" && c.MCP.Command == "" {
		return fmt.Errorf("MCP command is required for the stdio transport")
	}
	if c.MCP.CallTimeout <= 0 || c.MCP.ListTimeout <= 0 {
		return fmt.Errorf("MCP timeouts must be positive")
	}
	if err := oneOf("tool execution", c.Backend.ToolExecution, "local", "remote"); err != nil {
		return err
	}
	if c.Corp.Timeout <= 0 {
		return fmt.Errorf("corp API timeout must be positive")
	}
	return nil
}

func oneOf(what, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (allowed: %s)", what, value, strings.Join(allowed, ", "))
}
