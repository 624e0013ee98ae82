package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Extraction strategies. Exactly one is active per deployment.
const (
	StrategyVision = "vision"
	StrategyOCR    = "ocr"
)

// Config holds all configuration for the brand detection service.
type Config struct {
	// Server
	Host string
	Port int

	// GCP
	ProjectID      string
	VertexAIRegion string
	GeminiModel    string

	// Firestore
	CollectionName string

	// Storage. Empty bucket disables source archiving.
	UploadBucket string

	// Upload limits. MaxFileSize of 0 means no limit.
	MaxFileSize int64

	// Pipeline
	ExtractionStrategy string
	BatchSize          int
	MaxConcurrentPages int
	ModelPoolSize      int

	// Rasterization
	PDFDPI int

	// Tiling
	TileSize    int
	TileOverlap int
	MinTileSize int

	// OCR
	OCRLanguages         []string
	OCRConfidence        float64
	OCRMaxRetries        int
	OCRRetryDelaySeconds float64
	TilingEnabled        bool
}

// Load reads configuration from the environment, applying the same
// defaults the service has always shipped with. A .env file is honored
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	projectID := GetEnv("GCP_PROJECT", "")
	if projectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT environment variable must be set")
	}

	cfg := &Config{
		Host:                 GetEnv("HOST", "0.0.0.0"),
		Port:                 getEnvInt("PORT", 8000),
		ProjectID:            projectID,
		VertexAIRegion:       GetEnv("VERTEX_AI_REGION", "us-central1"),
		GeminiModel:          GetEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		CollectionName:       GetEnv("FIRESTORE_COLLECTION", "documents"),
		UploadBucket:         GetEnv("UPLOAD_BUCKET", ""),
		MaxFileSize:          int64(getEnvInt("MAX_FILE_SIZE", 0)),
		ExtractionStrategy:   GetEnv("EXTRACTION_STRATEGY", StrategyVision),
		BatchSize:            getEnvInt("BATCH_SIZE", 4),
		MaxConcurrentPages:   getEnvInt("MAX_CONCURRENT_PAGES", 4),
		ModelPoolSize:        getEnvInt("MODEL_POOL_SIZE", 3),
		PDFDPI:               getEnvInt("PDF_DPI", 600),
		TileSize:             getEnvInt("TILE_SIZE", 1024),
		TileOverlap:          getEnvInt("TILE_OVERLAP", 200),
		MinTileSize:          getEnvInt("MIN_TILE_SIZE", 200),
		OCRLanguages:         splitCSV(GetEnv("OCR_LANGUAGES", "spa,eng")),
		OCRConfidence:        getEnvFloat("OCR_CONFIDENCE_THRESHOLD", 0.3),
		OCRMaxRetries:        getEnvInt("OCR_MAX_RETRIES", 3),
		OCRRetryDelaySeconds: getEnvFloat("OCR_RETRY_DELAY", 1.0),
		TilingEnabled:        getEnvBool("TILING_ENABLED", true),
	}

	if cfg.ExtractionStrategy != StrategyVision && cfg.ExtractionStrategy != StrategyOCR {
		return nil, fmt.Errorf("EXTRACTION_STRATEGY must be %q or %q, got %q",
			StrategyVision, StrategyOCR, cfg.ExtractionStrategy)
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("BATCH_SIZE must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.MaxConcurrentPages < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_PAGES must be at least 1, got %d", cfg.MaxConcurrentPages)
	}
	if cfg.ModelPoolSize < 1 {
		return nil, fmt.Errorf("MODEL_POOL_SIZE must be at least 1, got %d", cfg.ModelPoolSize)
	}
	if cfg.TileOverlap >= cfg.TileSize {
		return nil, fmt.Errorf("TILE_OVERLAP (%d) must be smaller than TILE_SIZE (%d)",
			cfg.TileOverlap, cfg.TileSize)
	}

	return cfg, nil
}

// GetEnv is a helper to read an environment variable or return a default
// value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
