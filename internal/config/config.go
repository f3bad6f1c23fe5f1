package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is read once at startup and
// held for the lifetime of the process.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	OCR     OCRConfig
	Extract ExtractConfig
	Oracle  OracleConfig
	Storage StorageConfig
	Store   StoreConfig
	CORS    CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxFileSizeMB int64         `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OCRConfig holds the image-PDF fallback settings.
type OCRConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	DPI           int    `mapstructure:"dpi"`
	Language      string `mapstructure:"language"`
	KeepArtifacts bool   `mapstructure:"keep_artifacts"`
	ArtifactDir   string `mapstructure:"artifact_dir"`
	PdftoppmBin   string `mapstructure:"pdftoppm_bin"`
	TesseractBin  string `mapstructure:"tesseract_bin"`
	MaxPages      int    `mapstructure:"max_pages"`
}

// ExtractConfig holds content-extraction settings.
type ExtractConfig struct {
	MinTextChars int    `mapstructure:"min_text_chars"`
	Concurrency  int    `mapstructure:"concurrency"`
	PdftotextBin string `mapstructure:"pdftotext_bin"`
}

// OracleConfig holds LLM extraction oracle settings.
type OracleConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	Endpoint    string `mapstructure:"endpoint"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	MaxTokens   int    `mapstructure:"max_tokens"`
}

// Timeout returns the oracle call timeout as a duration.
func (o *OracleConfig) Timeout() time.Duration {
	if o.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(o.TimeoutSecs) * time.Second
}

// StorageConfig selects and configures the raw-document blob backend.
type StorageConfig struct {
	Backend  string   `mapstructure:"backend"` // "local" | "s3"
	LocalDir string   `mapstructure:"local_dir"`
	S3       S3Config `mapstructure:"s3"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// StoreConfig holds the processed-record store settings.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the SHIPDOCS prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHIPDOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_file_size_mb", 50)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// OCR defaults
	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.keep_artifacts", false)
	v.SetDefault("ocr.artifact_dir", "./tmp/ocr")
	v.SetDefault("ocr.pdftoppm_bin", "pdftoppm")
	v.SetDefault("ocr.tesseract_bin", "tesseract")
	v.SetDefault("ocr.max_pages", 0)

	// Extraction defaults
	v.SetDefault("extract.min_text_chars", 32)
	v.SetDefault("extract.concurrency", 4)
	v.SetDefault("extract.pdftotext_bin", "pdftotext")

	// Oracle defaults. OpenAI is the default provider; set oracle.provider
	// to "claude" to use the Anthropic backend instead.
	v.SetDefault("oracle.provider", "openai")
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.endpoint", "")
	v.SetDefault("oracle.timeout_secs", 120)
	v.SetDefault("oracle.max_tokens", 4096)

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "./data/uploads")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "shipdocs-uploads")
	v.SetDefault("storage.s3.endpoint", "")

	// Record store defaults
	v.SetDefault("store.path", "./data/records.json")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// viper reads comma-separated env lists as a single string
	if len(cfg.CORS.AllowedOrigins) == 1 && strings.Contains(cfg.CORS.AllowedOrigins[0], ",") {
		cfg.CORS.AllowedOrigins = strings.Split(cfg.CORS.AllowedOrigins[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.OCR.DPI <= 0 {
		return fmt.Errorf("ocr.dpi must be positive, got %d", c.OCR.DPI)
	}
	if c.Extract.Concurrency <= 0 {
		return fmt.Errorf("extract.concurrency must be positive, got %d", c.Extract.Concurrency)
	}
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("storage.backend must be local or s3, got %q", c.Storage.Backend)
	}
	return nil
}
