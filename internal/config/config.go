package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Copilot  CopilotConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	// JWTSecret turns on bearer auth for /api when set
	JWTSecret string
}

type DatabaseConfig struct {
	Connection string
	SQLitePath string
	Debug      bool
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	OpenAI       string
	HuggingFace  string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama", "jina" or "openai"
	EmbeddingModel    string
	EmbeddingBaseURL  string
	OllamaBaseURL     string
	LLMProvider       string // "ollama", "openai" or "huggingface"
	LLMModel          string
	LLMBaseURL        string
}

type CopilotConfig struct {
	Temperature    float64
	MaxTokens      int
	ContextTurns   int
	SystemPrompt   string
	TTLDays        int
	Stream         bool
	RecordStore    string // "memory", "postgres" or "redis"
	RetrievalTopK  int
	ChunkSize      int
	ChunkOverlap   int
	SaveFolder     string
	Debug          bool
	PromptLogPath  string
	SessionIdleTTL int // minutes
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			SQLitePath: getEnv("SQLITE_PATH", "data/copilot.db"),
			Debug:      getEnvAsBool("DB_DEBUG", false),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		},
		Copilot: CopilotConfig{
			Temperature:    getEnvAsFloat("COPILOT_TEMPERATURE", 0.7),
			MaxTokens:      getEnvAsInt("COPILOT_MAX_TOKENS", 1000),
			ContextTurns:   getEnvAsInt("COPILOT_CONTEXT_TURNS", 3),
			SystemPrompt:   getEnv("COPILOT_SYSTEM_PROMPT", ""),
			TTLDays:        getEnvAsInt("COPILOT_TTL_DAYS", 30),
			Stream:         getEnvAsBool("COPILOT_STREAM", true),
			RecordStore:    getEnv("COPILOT_RECORD_STORE", "memory"),
			RetrievalTopK:  getEnvAsInt("COPILOT_RETRIEVAL_TOP_K", 4),
			ChunkSize:      getEnvAsInt("COPILOT_CHUNK_SIZE", 1000),
			ChunkOverlap:   getEnvAsInt("COPILOT_CHUNK_OVERLAP", 100),
			SaveFolder:     getEnv("COPILOT_SAVE_FOLDER", "copilot-conversations"),
			Debug:          getEnvAsBool("COPILOT_DEBUG", false),
			PromptLogPath:  getEnv("COPILOT_PROMPT_LOG", "logs/llm_prompts.log"),
			SessionIdleTTL: getEnvAsInt("COPILOT_SESSION_IDLE_MINUTES", 60),
		},
	}
}

// LLMBaseURL falls back to the provider's local default.
func (c *Config) LLMBaseURL() string {
	if c.Ai.LLMBaseURL != "" {
		return c.Ai.LLMBaseURL
	}
	if c.Ai.LLMProvider == "ollama" {
		return c.Ai.OllamaBaseURL
	}
	return ""
}

func (c *Config) LLMAPIKey() string {
	switch c.Ai.LLMProvider {
	case "huggingface":
		return c.Keys.HuggingFace
	case "openai":
		return c.Keys.OpenAI
	}
	return ""
}

func (c *Config) EmbeddingBaseURL() string {
	if c.Ai.EmbeddingBaseURL != "" {
		return c.Ai.EmbeddingBaseURL
	}
	if c.Ai.EmbeddingProvider == "ollama" {
		return c.Ai.OllamaBaseURL
	}
	return ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
