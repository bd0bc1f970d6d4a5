package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Qdrant   QdrantConfig
	Gemini   GeminiConfig
	Matching MatchingConfig
	Upload   UploadConfig
	Worker   WorkerConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type MatchingConfig struct {
	EmbeddingDimension int
	MinMatchScore      float64
	RecallFloor        float64
	TopK               int
	// FullCreditWhenNoSkills grants skill_match_score=100 when the job lists
	// no required skills; the default policy scores that case 0.
	FullCreditWhenNoSkills bool
}

type UploadConfig struct {
	MaxFileSize   int64
	MaxMatchFiles int
	MaxStoreFiles int
}

type WorkerConfig struct {
	Concurrency       int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8000"),
			Env:            getEnv("ENV", "development"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", "5m"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_matcher"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "resume_embeddings"),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
		},
		Matching: MatchingConfig{
			EmbeddingDimension:     getEnvAsInt("EMBEDDING_DIMENSION", 768),
			MinMatchScore:          getEnvAsFloat("MIN_MATCH_SCORE", 80.0),
			RecallFloor:            getEnvAsFloat("RECALL_FLOOR", 0.5),
			TopK:                   getEnvAsInt("SEARCH_TOP_K", 100),
			FullCreditWhenNoSkills: getEnv("SKILL_SCORE_WHEN_NO_REQUIREMENTS", "zero") == "full",
		},
		Upload: UploadConfig{
			MaxFileSize:   getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			MaxMatchFiles: getEnvAsInt("MAX_MATCH_FILES", 50),
			MaxStoreFiles: getEnvAsInt("MAX_STORE_FILES", 100),
		},
		Worker: WorkerConfig{
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 5),
			RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// Validate enforces the keys the pipeline cannot run without. Absence of a
// required key is a startup fatal, never a per-request error.
func (c *Config) Validate() error {
	var missing []string

	if c.Gemini.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.Qdrant.URL == "" {
		missing = append(missing, "QDRANT_URL")
	}
	if c.Qdrant.Collection == "" {
		missing = append(missing, "QDRANT_COLLECTION")
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		missing = append(missing, "DB_HOST/DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Matching.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.Matching.EmbeddingDimension)
	}
	if c.Matching.MinMatchScore < 0 || c.Matching.MinMatchScore > 100 {
		return fmt.Errorf("MIN_MATCH_SCORE must be within [0,100], got %.2f", c.Matching.MinMatchScore)
	}
	if c.Matching.RecallFloor < 0 || c.Matching.RecallFloor > 1 {
		return fmt.Errorf("RECALL_FLOOR must be within [0,1], got %.2f", c.Matching.RecallFloor)
	}
	if c.Matching.TopK < 1 || c.Matching.TopK > 1000 {
		return fmt.Errorf("SEARCH_TOP_K must be within [1,1000], got %d", c.Matching.TopK)
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.Worker.Concurrency)
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
