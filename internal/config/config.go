// Package config loads process configuration from the environment, plus an
// optional YAML rules file for the annotation density ceilings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth for the HTTP API
	APIKey string

	// Claude annotation
	AnthropicAPIKey string
	AnthropicModel  string

	// Worker pool (server mode)
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Segmentation
	ChunkMinLines int
	ChunkMaxLines int

	// Annotation rules
	MaxSpansPerParagraph int
	MaxSpanDensity       float64
	MinSpanRunes         int
	MaxSpanRunes         int
	RetryLimit           int
	SpanFormat           string // "class" or "inline"
	RulesFile            string // optional YAML overriding the rule fields

	// Pipeline
	Pipelined bool // overlap next annotation with current write

	// Output
	OutputDir string
	InPlace   bool

	// Run ledger
	LedgerPath string

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("MDHIGHLIGHT_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ChunkMinLines: envInt("CHUNK_MIN_LINES", 200),
		ChunkMaxLines: envInt("CHUNK_MAX_LINES", 400),

		MaxSpansPerParagraph: envInt("MAX_SPANS_PER_PARAGRAPH", 3),
		MaxSpanDensity:       envFloat("MAX_SPAN_DENSITY", 0.30),
		MinSpanRunes:         envInt("MIN_SPAN_RUNES", 2),
		MaxSpanRunes:         envInt("MAX_SPAN_RUNES", 60),
		RetryLimit:           envInt("RETRY_LIMIT", 2),
		SpanFormat:           envOr("SPAN_FORMAT", "class"),
		RulesFile:            os.Getenv("RULES_FILE"),

		Pipelined: envBool("PIPELINED", false),

		OutputDir: envOr("OUTPUT_DIR", "annotated"),
		InPlace:   envBool("IN_PLACE", false),

		LedgerPath: envOr("LEDGER_PATH", "mdhighlight.db"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ChunkMinLines <= 0 {
		cfg.ChunkMinLines = 200
	}
	if cfg.ChunkMaxLines < cfg.ChunkMinLines {
		cfg.ChunkMaxLines = cfg.ChunkMinLines * 2
	}
	if cfg.RetryLimit < 0 {
		cfg.RetryLimit = 0
	}
	if cfg.SpanFormat != "class" && cfg.SpanFormat != "inline" {
		cfg.SpanFormat = "class"
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings server mode cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("MDHIGHLIGHT_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
