// Package config loads application configuration from config.yaml with
// environment overrides and materializes it into an immutable Config value.
// Orchestrators receive the value at construction; there is no ambient
// global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the immutable application configuration.
type Config struct {
	AI      AIConfig
	App     AppConfig
	Storage StorageConfig
	Neo4j   Neo4jConfig
	Server  ServerConfig
	LogMode string
}

// AIConfig selects and configures the LLM provider backing the content
// generator and grader.
type AIConfig struct {
	// Provider is one of "openai", "anthropic", "gemini", "openrouter",
	// "local", "mock".
	Provider string

	OpenAI     ProviderConfig
	Anthropic  ProviderConfig
	Gemini     ProviderConfig
	OpenRouter ProviderConfig
	Local      ProviderConfig

	KnowledgeGraph GenParams
	Questions      GenParams
	Grading        GenParams

	// MaxAttempts bounds retries on transient provider errors.
	MaxAttempts int
	// Timeout applies to a single external AI call, retries included.
	Timeout time.Duration
}

// ProviderConfig holds per-provider credentials and model selection.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GenParams are per-purpose sampling parameters.
type GenParams struct {
	Temperature float64
	MaxTokens   int
}

// AppConfig holds quiz-facing knobs.
type AppConfig struct {
	// DefaultQuestionCount is how many questions topic creation requests.
	DefaultQuestionCount int
	// QuestionsPerSession bounds a quiz session when the caller does not
	// ask for a specific count.
	QuestionsPerSession int
}

// StorageConfig selects the relational store.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string
	// Path is the SQLite file path (sqlite driver only).
	Path string
	// DSN is the Postgres connection string (postgres driver only).
	DSN string
}

// Neo4jConfig configures the derived graph index. An empty URI disables the
// graph store; all mirror writes become reconciliation-pending.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// Load reads configuration from path (or ./config.yaml when empty), applies
// environment overrides, and returns the materialized Config.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("INKLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if path != "" || !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		AI: AIConfig{
			Provider: v.GetString("ai.provider"),
			OpenAI: ProviderConfig{
				APIKey:  firstNonEmpty(os.Getenv("OPENAI_API_KEY"), v.GetString("ai.openai.api_key")),
				Model:   v.GetString("ai.openai.model"),
				BaseURL: v.GetString("ai.openai.base_url"),
			},
			Anthropic: ProviderConfig{
				APIKey: firstNonEmpty(os.Getenv("ANTHROPIC_API_KEY"), v.GetString("ai.anthropic.api_key")),
				Model:  v.GetString("ai.anthropic.model"),
			},
			Gemini: ProviderConfig{
				APIKey: firstNonEmpty(os.Getenv("GEMINI_API_KEY"), v.GetString("ai.gemini.api_key")),
				Model:  v.GetString("ai.gemini.model"),
			},
			OpenRouter: ProviderConfig{
				APIKey:  firstNonEmpty(os.Getenv("OPENROUTER_API_KEY"), v.GetString("ai.openrouter.api_key")),
				Model:   v.GetString("ai.openrouter.model"),
				BaseURL: v.GetString("ai.openrouter.base_url"),
			},
			Local: ProviderConfig{
				Model:   v.GetString("ai.local.model"),
				BaseURL: v.GetString("ai.local.base_url"),
			},
			KnowledgeGraph: GenParams{
				Temperature: v.GetFloat64("ai.knowledge_graph.temperature"),
				MaxTokens:   v.GetInt("ai.knowledge_graph.max_tokens"),
			},
			Questions: GenParams{
				Temperature: v.GetFloat64("ai.question_generation.temperature"),
				MaxTokens:   v.GetInt("ai.question_generation.max_tokens"),
			},
			Grading: GenParams{
				Temperature: v.GetFloat64("ai.grading.temperature"),
				MaxTokens:   v.GetInt("ai.grading.max_tokens"),
			},
			MaxAttempts: v.GetInt("ai.max_attempts"),
			Timeout:     v.GetDuration("ai.timeout"),
		},
		App: AppConfig{
			DefaultQuestionCount: v.GetInt("app.default_question_count"),
			QuestionsPerSession:  v.GetInt("app.quiz_questions_per_session"),
		},
		Storage: StorageConfig{
			Driver: v.GetString("storage.driver"),
			Path:   v.GetString("storage.database_path"),
			DSN:    v.GetString("storage.dsn"),
		},
		Neo4j: Neo4jConfig{
			URI:      firstNonEmpty(os.Getenv("NEO4J_URI"), v.GetString("neo4j.uri")),
			Username: firstNonEmpty(os.Getenv("NEO4J_USERNAME"), v.GetString("neo4j.username"), "neo4j"),
			Password: firstNonEmpty(os.Getenv("NEO4J_PASSWORD"), v.GetString("neo4j.password")),
			Database: v.GetString("neo4j.database"),
		},
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
		},
		LogMode: v.GetString("log.mode"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("ai.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("ai.local.model", "llama3")
	v.SetDefault("ai.local.base_url", "http://localhost:11434/v1")
	v.SetDefault("ai.knowledge_graph.temperature", 0.7)
	v.SetDefault("ai.knowledge_graph.max_tokens", 2000)
	v.SetDefault("ai.question_generation.temperature", 0.8)
	v.SetDefault("ai.question_generation.max_tokens", 4000)
	v.SetDefault("ai.grading.temperature", 0.3)
	v.SetDefault("ai.grading.max_tokens", 1000)
	v.SetDefault("ai.max_attempts", 2)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("app.default_question_count", 10)
	v.SetDefault("app.quiz_questions_per_session", 5)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.database_path", defaultDBPath())
	v.SetDefault("neo4j.uri", "")
	v.SetDefault("neo4j.database", "")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("log.mode", "dev")
}

// Validate checks that the selected provider has the credentials it needs.
func (c Config) Validate() error {
	switch c.AI.Provider {
	case "openai":
		if c.AI.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.AI.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.AI.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "local", "mock":
		// No credentials needed.
	default:
		return fmt.Errorf("unknown AI provider: %q", c.AI.Provider)
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}
	return nil
}

// defaultDBPath resolves the SQLite file path: INKLING_DB env var, then
// $XDG_DATA_HOME/inkling/inkling.db, then ~/.local/share/inkling/inkling.db.
func defaultDBPath() string {
	if p := os.Getenv("INKLING_DB"); p != "" {
		return p
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "data/inkling.db"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "inkling", "inkling.db")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
