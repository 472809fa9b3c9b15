package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Fragments   FragmentsConfig  `toml:"fragments"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	Images      ImagesConfig     `toml:"images"`
	LLM         LLMConfig        `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type FilesystemConfig struct {
	Images string `toml:"images"` // Directory for persisted article images
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// FragmentsConfig contains configuration for the fragment pool
type FragmentsConfig struct {
	SeedDir string `toml:"seed_dir"` // Directory containing fragment seed files (TOML/YAML)
}

// PipelineConfig contains configuration for the generation pipeline
type PipelineConfig struct {
	MinFragmentChars  int    `toml:"min_fragment_chars"` // Content-quality floor for selected fragments
	MaxSelectAttempts int    `toml:"max_select_attempts"`
	MaxBatchSize      int    `toml:"max_batch_size"`
	BatchDelay        string `toml:"batch_delay"` // Delay between batch runs, duration string
}

// SchedulerConfig contains configuration for scheduled batch generation
type SchedulerConfig struct {
	Enabled   bool   `toml:"enabled"`
	Schedule  string `toml:"schedule"`   // Cron schedule format
	BatchSize int    `toml:"batch_size"` // Articles to generate per scheduled run
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for text generation (default: "gemini-2.0-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for text generation (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ImagesConfig contains configuration for the illustration stage
type ImagesConfig struct {
	Enabled      bool   `toml:"enabled"`       // Illustration stage on/off
	APIKey       string `toml:"api_key"`       // Image generation service API key
	Model        string `toml:"model"`         // Image model (default: "dall-e-3")
	Size         string `toml:"size"`          // Image size (default: "1024x1024")
	Timeout      string `toml:"timeout"`       // Generation timeout as duration string (default: "90s")
	MaxImageSize int64  `toml:"max_image_size"` // Max bytes to download when persisting (default: 10MB)
	PublicPath   string `toml:"public_path"`    // URL prefix persisted images are served from
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the text generation provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in scribo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Filesystem: FilesystemConfig{
				Images: "./data/images",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Fragments: FragmentsConfig{
			SeedDir: "./fragments",
		},
		Pipeline: PipelineConfig{
			MinFragmentChars:  50, // Fragments below this are skipped as low quality
			MaxSelectAttempts: 5,
			MaxBatchSize:      20,
			BatchDelay:        "2s", // Keeps sequential batch runs under third-party rate limits
		},
		Scheduler: SchedulerConfig{
			Enabled:   false, // User must explicitly opt in
			Schedule:  "0 */6 * * *",
			BatchSize: 3,
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key
			Model:       "gemini-2.0-flash",
			Timeout:     "2m",
			RateLimit:   "4s", // 15 RPM free tier
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		Images: ImagesConfig{
			Enabled:      false, // Articles publish without images unless configured
			APIKey:       "",
			Model:        "dall-e-3",
			Size:         "1024x1024",
			Timeout:      "90s",
			MaxImageSize: 10 * 1024 * 1024,
			PublicPath:   "/data/images",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCRIBO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("SCRIBO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SCRIBO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if path := os.Getenv("SCRIBO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if dir := os.Getenv("SCRIBO_IMAGES_DIR"); dir != "" {
		config.Storage.Filesystem.Images = dir
	}
	if dir := os.Getenv("SCRIBO_FRAGMENTS_DIR"); dir != "" {
		config.Fragments.SeedDir = dir
	}

	if level := os.Getenv("SCRIBO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if key := os.Getenv("SCRIBO_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if model := os.Getenv("SCRIBO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if key := os.Getenv("SCRIBO_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}

	if key := os.Getenv("SCRIBO_IMAGES_API_KEY"); key != "" {
		config.Images.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.Images.APIKey = key
	}

	if provider := os.Getenv("SCRIBO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
