// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// FromEnv overrides configuration values from environment variables
func FromEnv(cfg *Config) {
	setString(&cfg.Server.Address, "SERVER_ADDRESS")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.TransportMode, "SERVER_TRANSPORT")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.FilePath, "LOG_FILE")

	setString(&cfg.AI.Provider, "AI_PROVIDER")
	setString(&cfg.AI.APIKey, "AI_API_KEY")
	setString(&cfg.AI.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.AI.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.AI.BaseURL, "AI_BASE_URL")
	setString(&cfg.AI.Model, "AI_MODEL")
	setString(&cfg.AI.ToolChoice, "AI_TOOL_CHOICE")
	setInt(&cfg.AI.MaxTokens, "AI_MAX_TOKENS")

	setString(&cfg.Auth.HMACKey, "HMAC_KEY")
	setInt(&cfg.Auth.NonceCapacity, "NONCE_CAPACITY")
	setDuration(&cfg.Auth.NonceWindow, "NONCE_WINDOW")
	setString(&cfg.Auth.SweepSchedule, "NONCE_SWEEP_SCHEDULE")
	setString(&cfg.Auth.RedisURL, "NONCE_REDIS_URL")

	setString(&cfg.MCP.Endpoint, "MCP_ENDPOINT")
	setString(&cfg.MCP.Transport, "MCP_TRANSPORT")
	setString(&cfg.MCP.Command, "MCP_COMMAND")
	if v := os.Getenv("MCP_ARGS"); v != "" {
		cfg.MCP.Args = strings.Fields(v)
	}
	setDuration(&cfg.MCP.CallTimeout, "TOOL_CALL_TIMEOUT")
	setDuration(&cfg.MCP.ListTimeout, "TOOL_LIST_TIMEOUT")

	setString(&cfg.Backend.Endpoint, "BACKEND_ENDPOINT")
	setString(&cfg.Backend.ToolExecution, "TOOL_EXECUTION")
	setString(&cfg.Backend.PDFStoragePath, "PDF_STORAGE_PATH")

	setString(&cfg.Store.DBPath, "DB_PATH")

	setString(&cfg.GitHub.Username, "GITHUB_USERNAME")
	setString(&cfg.GitHub.Token, "GITHUB_TOKEN")
	setString(&cfg.GitHub.BaseURL, "GITHUB_API_BASE")

	setString(&cfg.Corp.BaseURL, "COMPANY_API_BASE")
	setString(&cfg.Corp.ClientID, "MCP_ID")
	setDuration(&cfg.Corp.Timeout, "COMPANY_API_TIMEOUT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// setDuration accepts Go duration strings ("30s") or bare seconds ("30").
func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
	}
}
