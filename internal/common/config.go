package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Logging     LoggingConfig  `toml:"logging"`
	Fetch       FetchConfig    `toml:"fetch"`
	OCR         OCRConfig      `toml:"ocr"`
	Cleaner     CleanerConfig  `toml:"cleaner"`
	Refine      RefineConfig   `toml:"refine"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Claude      ClaudeConfig   `toml:"claude"`
	Concepts    ConceptsConfig `toml:"concepts"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// FetchConfig controls document retrieval over the network.
type FetchConfig struct {
	Timeout     time.Duration `toml:"timeout"`       // HTTP request timeout
	MaxBodySize int64         `toml:"max_body_size"` // Maximum document size in bytes
}

// OCRConfig controls rasterization, normalization and text recognition.
type OCRConfig struct {
	DPI             int           `toml:"dpi"`              // Fixed rasterization resolution for PDFs
	Languages       []string      `toml:"languages"`        // Tesseract language hints
	EngineTimeout   time.Duration `toml:"engine_timeout"`   // Per-page recognition timeout
	PageConcurrency int           `toml:"page_concurrency"` // Parallel page recognition bound (1 = sequential)
	ScaleFactor     int           `toml:"scale_factor"`     // Upscale factor applied before binarization
}

// CleanerConfig controls the deterministic text refiner.
type CleanerConfig struct {
	DictionaryPath string   `toml:"dictionary_path"` // Word list for the spell corrector; empty disables correction
	HeadingAnchors []string `toml:"heading_anchors"` // Phrases promoted to heading blocks wherever they appear
	HeadingLabels  []string `toml:"heading_labels"`  // Line-leading labels promoted to heading blocks
}

// RefineConfig controls the external refinement gate. The length-ratio and
// keyword-coverage thresholds are deliberately configuration, not constants;
// known deployments of this pipeline disagree on the production values.
type RefineConfig struct {
	Enabled            bool          `toml:"enabled"`              // Administrative switch for the external stage
	Provider           string        `toml:"provider"`             // "gemini" or "claude"
	MaxInputChars      int           `toml:"max_input_chars"`      // Truncation ceiling (default: 25000)
	MaxAttempts        int           `toml:"max_attempts"`         // Attempt bound for transient failures (default: 5)
	BackoffConstant    time.Duration `toml:"backoff_constant"`     // Added to 2^attempt seconds between attempts
	MaxLengthRatio     float64       `toml:"max_length_ratio"`     // Expansion bound (default: 1.4)
	MinKeywordCoverage float64       `toml:"min_keyword_coverage"` // Required 4+ letter token overlap (default: 0.6)
	RateLimit          time.Duration `toml:"rate_limit"`           // Minimum spacing between provider calls
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey          string  `toml:"api_key"`           // Google Gemini API key
	Model           string  `toml:"model"`             // Model for refinement (default: "gemini-2.0-flash")
	Timeout         string  `toml:"timeout"`           // Per-call timeout as duration string (default: "2m")
	Temperature     float32 `toml:"temperature"`       // Generation temperature (default: 0.2)
	MaxOutputTokens int32   `toml:"max_output_tokens"` // Output-token ceiling (default: 4096)
	BlockThreshold  string  `toml:"block_threshold"`   // Content-safety threshold (default: "BLOCK_ONLY_HIGH")
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey          string  `toml:"api_key"`           // Anthropic API key
	Model           string  `toml:"model"`             // Model for refinement (default: "claude-haiku-3-5-20241022")
	Timeout         string  `toml:"timeout"`           // Per-call timeout as duration string (default: "2m")
	Temperature     float32 `toml:"temperature"`       // Generation temperature (default: 0.2)
	MaxOutputTokens int32   `toml:"max_output_tokens"` // Output-token ceiling (default: 4096)
}

// ConceptsConfig controls concept extraction.
type ConceptsConfig struct {
	MaxConcepts   int      `toml:"max_concepts"`    // Concept list cap (default: 15)
	BulletMaxLen  int      `toml:"bullet_max_len"`  // Longest bullet line still treated as a concept
	StopConcepts  []string `toml:"stop_concepts"`   // Extra phrases rejected outright, merged with built-ins
	MaxPhraseRuns int      `toml:"max_phrase_runs"` // Fallback candidate pool multiplier numerator (default: 2)
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings belong in lector.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Fetch: FetchConfig{
			Timeout:     60 * time.Second,
			MaxBodySize: 50 * 1024 * 1024, // 50MB covers scanned multi-page PDFs
		},
		OCR: OCRConfig{
			DPI:             300, // Fixed: accuracy falls off a cliff below ~300 DPI
			Languages:       []string{"eng"},
			EngineTimeout:   90 * time.Second,
			PageConcurrency: 1,
			ScaleFactor:     2,
		},
		Cleaner: CleanerConfig{
			DictionaryPath: "",
			HeadingAnchors: []string{"information storage"},
			HeadingLabels:  []string{"definition", "example", "summary"},
		},
		Refine: RefineConfig{
			Enabled:            true,
			Provider:           "gemini",
			MaxInputChars:      25000,
			MaxAttempts:        5,
			BackoffConstant:    1 * time.Second,
			MaxLengthRatio:     1.4,
			MinKeywordCoverage: 0.6,
			RateLimit:          4 * time.Second, // 15 RPM free-tier spacing
		},
		Gemini: GeminiConfig{
			APIKey:          "",
			Model:           "gemini-2.0-flash",
			Timeout:         "2m",
			Temperature:     0.2, // Low temperature, less hallucination
			MaxOutputTokens: 4096,
			BlockThreshold:  "BLOCK_ONLY_HIGH",
		},
		Claude: ClaudeConfig{
			APIKey:          "",
			Model:           "claude-haiku-3-5-20241022",
			Timeout:         "2m",
			Temperature:     0.2,
			MaxOutputTokens: 4096,
		},
		Concepts: ConceptsConfig{
			MaxConcepts:   15,
			BulletMaxLen:  60,
			StopConcepts:  []string{},
			MaxPhraseRuns: 2,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
// An empty path loads defaults plus environment overrides only.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority).
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("LECTOR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("LECTOR_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("LECTOR_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("LECTOR_REFINE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			config.Refine.Enabled = enabled
		}
	}
	if v := os.Getenv("LECTOR_REFINE_PROVIDER"); v != "" {
		config.Refine.Provider = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("LECTOR_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("LECTOR_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
}

// validate rejects configurations that would break pipeline guarantees.
func (c *Config) validate() error {
	if c.Refine.MaxAttempts < 1 {
		return fmt.Errorf("refine.max_attempts must be at least 1, got %d", c.Refine.MaxAttempts)
	}
	if c.Refine.MaxLengthRatio <= 0 {
		return fmt.Errorf("refine.max_length_ratio must be positive, got %f", c.Refine.MaxLengthRatio)
	}
	if c.Refine.MinKeywordCoverage < 0 || c.Refine.MinKeywordCoverage > 1 {
		return fmt.Errorf("refine.min_keyword_coverage must be in [0,1], got %f", c.Refine.MinKeywordCoverage)
	}
	if c.OCR.DPI < 72 {
		return fmt.Errorf("ocr.dpi must be at least 72, got %d", c.OCR.DPI)
	}
	if c.Concepts.MaxConcepts < 1 {
		return fmt.Errorf("concepts.max_concepts must be at least 1, got %d", c.Concepts.MaxConcepts)
	}
	return nil
}
