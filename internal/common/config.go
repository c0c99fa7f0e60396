package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM       LLMConfig
	Ledger    LedgerConfig
	Telemetry TelemetryConfig
	Storage   StorageConfig
	Pipeline  PipelineConfig
}

// LLMConfig holds Gemini-related configuration
type LLMConfig struct {
	Model   string
	APIKey  string
	Timeout time.Duration
}

// LedgerConfig holds ledger backend configuration
type LedgerConfig struct {
	Backend         string // "sheets", "sqlite" or "memory"
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	SQLitePath      string
	TailWindow      int
}

// TelemetryConfig holds the optional token-usage store configuration
type TelemetryConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// StorageConfig holds receipt image storage configuration
type StorageConfig struct {
	BucketName string
}

// PipelineConfig holds extraction pipeline thresholds and limits
type PipelineConfig struct {
	MinConfidence     float64
	MaxImageDimension int
	BatchWorkers      int
	CategoryCacheSize int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 45*time.Second),
		},
		Ledger: LedgerConfig{
			Backend:         getEnv("LEDGER_BACKEND", "sheets"),
			SpreadsheetID:   getEnv("GOOGLE_SHEETS_ID", ""),
			SheetName:       getEnv("LEDGER_SHEET_NAME", "Pengiriman"),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			SQLitePath:      getEnv("LEDGER_SQLITE_PATH", "./deliveries.db"),
			TailWindow:      getEnvAsInt("LEDGER_TAIL_WINDOW", 10),
		},
		Telemetry: TelemetryConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Storage: StorageConfig{
			BucketName: getEnv("GCS_BUCKET_NAME", ""),
		},
		Pipeline: PipelineConfig{
			MinConfidence:     getEnvAsFloat64("MIN_CONFIDENCE_THRESHOLD", 0.5),
			MaxImageDimension: getEnvAsInt("MAX_IMAGE_DIMENSION", 800),
			BatchWorkers:      getEnvAsInt("BATCH_WORKERS", 5),
			CategoryCacheSize: getEnvAsInt("CATEGORY_CACHE_SIZE", 128),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Ledger.Backend == "sheets" && c.Ledger.SpreadsheetID == "" {
		return NewAppError("CONFIG_ERROR", "GOOGLE_SHEETS_ID is required for the sheets ledger", ErrInvalidInput)
	}
	if c.Pipeline.MinConfidence < 0 || c.Pipeline.MinConfidence > 1 {
		return NewAppError("CONFIG_ERROR", "MIN_CONFIDENCE_THRESHOLD must be in [0,1]", ErrInvalidInput)
	}
	if c.Pipeline.MaxImageDimension <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_IMAGE_DIMENSION must be positive", ErrInvalidInput)
	}
	return nil
}
