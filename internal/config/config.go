package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every runtime setting for the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Router   RouterConfig
	OrderAPI OrderAPIConfig
	Session  SessionConfig
	KB       KBConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}
	router, err := loadRouterConfig()
	if err != nil {
		return nil, err
	}
	orderAPI, err := loadOrderAPIConfig()
	if err != nil {
		return nil, err
	}
	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Router:   router,
		OrderAPI: orderAPI,
		Session:  session,
		KB:       KBConfig{Path: strings.TrimSpace(os.Getenv("KB_PATH"))},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}
	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the Ark chat model used by the LLM router and resolver.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
	MaxRetries  int
	Backoff     time.Duration
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark credentials or model missing: provide ARK_API_KEY + ARK_MODEL or AK/SK")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}
	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	maxRetries, err := parseIntEnv("LLM_MAX_RETRIES", 3)
	if err != nil {
		return AIConfig{}, err
	}
	backoff, err := parseDurationEnv("LLM_BACKOFF", 500*time.Millisecond)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		MaxRetries:  maxRetries,
		Backoff:     backoff,
	}, nil
}

// RouterConfig selects the routing strategy and resolver gating.
type RouterConfig struct {
	Strategy              string
	ResolverMinConfidence float64
}

func loadRouterConfig() (RouterConfig, error) {
	strategy := strings.ToLower(getEnvOrDefault("ROUTER_STRATEGY", "keyword"))
	switch strategy {
	case "keyword", "bayes", "llm":
	default:
		return RouterConfig{}, fmt.Errorf("invalid ROUTER_STRATEGY %q: want keyword, bayes or llm", strategy)
	}

	minConf, err := parseFloatEnv("RESOLVER_MIN_CONF", 0.6)
	if err != nil {
		return RouterConfig{}, err
	}
	if minConf < 0 || minConf > 1 {
		return RouterConfig{}, fmt.Errorf("RESOLVER_MIN_CONF %v out of [0,1]", minConf)
	}

	return RouterConfig{Strategy: strategy, ResolverMinConfidence: minConf}, nil
}

// OrderAPIConfig describes the external order system endpoint. An empty
// BaseURL selects the seeded local client.
type OrderAPIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

func loadOrderAPIConfig() (OrderAPIConfig, error) {
	timeout, err := parseDurationEnv("ORDER_API_TIMEOUT", 5*time.Second)
	if err != nil {
		return OrderAPIConfig{}, err
	}
	maxRetries, err := parseIntEnv("ORDER_API_MAX_RETRIES", 3)
	if err != nil {
		return OrderAPIConfig{}, err
	}
	backoff, err := parseDurationEnv("ORDER_API_BACKOFF", 500*time.Millisecond)
	if err != nil {
		return OrderAPIConfig{}, err
	}

	return OrderAPIConfig{
		BaseURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("ORDER_API_BASE_URL")), "/"),
		Timeout:        timeout,
		MaxRetries:     maxRetries,
		InitialBackoff: backoff,
	}, nil
}

// SessionConfig selects the session persistence backend.
type SessionConfig struct {
	Backend string
	DBPath  string
}

func loadSessionConfig() (SessionConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("SESSION_STORE", "memory"))
	switch backend {
	case "memory", "sqlite":
	default:
		return SessionConfig{}, fmt.Errorf("invalid SESSION_STORE %q: want memory or sqlite", backend)
	}
	return SessionConfig{
		Backend: backend,
		DBPath:  getEnvOrDefault("SESSION_DB_PATH", "data/sessions.db"),
	}, nil
}

// KBConfig points at the FAQ knowledge base file.
type KBConfig struct {
	Path string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
