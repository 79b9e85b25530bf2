package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"lekha/internal/consensus"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	S3        S3Config
	Log       LogConfig
	CORS      CORSConfig
	Alignment AlignmentConfig
	Consensus ConsensusConfig
	OCR       OCRConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AlignmentConfig holds the geometric thresholds of the aligner.
type AlignmentConfig struct {
	LineOverlap float64 `mapstructure:"line_overlap"`
	WordOverlap float64 `mapstructure:"word_overlap"`
}

// ConsensusConfig selects how disagreeing readings are resolved.
type ConsensusConfig struct {
	PrimaryEngine string             `mapstructure:"primary_engine"`
	TieBreak      consensus.TieBreak `mapstructure:"tie_break"`
}

// OCRConfig holds OCR engine settings.
type OCRConfig struct {
	// Engines lists the engines run over each page, in run order.
	Engines     []string      `mapstructure:"engines"`
	Languages   []string      `mapstructure:"languages"`
	HOCRDir     string        `mapstructure:"hocr_dir"`
	KrakenModel string        `mapstructure:"kraken_model"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PrimaryEngine returns the configured primary engine, defaulting to the
// first engine in run order.
func (c *Config) PrimaryEngine() string {
	if c.Consensus.PrimaryEngine != "" {
		return c.Consensus.PrimaryEngine
	}
	if len(c.OCR.Engines) > 0 {
		return c.OCR.Engines[0]
	}
	return ""
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpen         int           `mapstructure:"max_open"`
	MaxIdle         int           `mapstructure:"max_idle"`
	ConnectAttempts uint          `mapstructure:"connect_attempts"`
	ConnectDelay    time.Duration `mapstructure:"connect_delay"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds settings of the bucket storing page images.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxPageSizeMB int64  `mapstructure:"max_page_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the LEKHA_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEKHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8765")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "lekha")
	v.SetDefault("db.password", "lekha_secret")
	v.SetDefault("db.name", "lekha_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)
	v.SetDefault("db.connect_attempts", 5)
	v.SetDefault("db.connect_delay", "1s")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "lekha-pages")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_page_size_mb", 64)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:8765,http://127.0.0.1:8765")

	// Alignment and consensus defaults
	v.SetDefault("alignment.line_overlap", 0.5)
	v.SetDefault("alignment.word_overlap", 0.5)
	v.SetDefault("consensus.primary_engine", "")
	v.SetDefault("consensus.tie_break", string(consensus.TieBreakPrimary))

	// OCR defaults
	v.SetDefault("ocr.engines", "tesseract")
	v.SetDefault("ocr.languages", "eng")
	v.SetDefault("ocr.hocr_dir", "")
	v.SetDefault("ocr.kraken_model", "")
	v.SetDefault("ocr.timeout", "2m")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":              "LEKHA_SERVER_PORT",
		"server.read_timeout":      "LEKHA_SERVER_READ_TIMEOUT",
		"server.write_timeout":     "LEKHA_SERVER_WRITE_TIMEOUT",
		"server.environment":       "LEKHA_SERVER_ENVIRONMENT",
		"db.host":                  "LEKHA_DB_HOST",
		"db.port":                  "LEKHA_DB_PORT",
		"db.user":                  "LEKHA_DB_USER",
		"db.password":              "LEKHA_DB_PASSWORD",
		"db.name":                  "LEKHA_DB_NAME",
		"db.sslmode":               "LEKHA_DB_SSLMODE",
		"db.max_open":              "LEKHA_DB_MAX_OPEN",
		"db.max_idle":              "LEKHA_DB_MAX_IDLE",
		"db.connect_attempts":      "LEKHA_DB_CONNECT_ATTEMPTS",
		"db.connect_delay":         "LEKHA_DB_CONNECT_DELAY",
		"s3.region":                "LEKHA_S3_REGION",
		"s3.bucket":                "LEKHA_S3_BUCKET",
		"s3.endpoint":              "LEKHA_S3_ENDPOINT",
		"s3.access_key":            "LEKHA_S3_ACCESS_KEY",
		"s3.secret_key":            "LEKHA_S3_SECRET_KEY",
		"s3.max_page_size_mb":      "LEKHA_S3_MAX_PAGE_SIZE_MB",
		"s3.presign_expiry":        "LEKHA_S3_PRESIGN_EXPIRY",
		"log.level":                "LEKHA_LOG_LEVEL",
		"log.format":               "LEKHA_LOG_FORMAT",
		"cors.allowed_origins":     "LEKHA_CORS_ALLOWED_ORIGINS",
		"alignment.line_overlap":   "LEKHA_ALIGNMENT_LINE_OVERLAP",
		"alignment.word_overlap":   "LEKHA_ALIGNMENT_WORD_OVERLAP",
		"consensus.primary_engine": "LEKHA_CONSENSUS_PRIMARY_ENGINE",
		"consensus.tie_break":      "LEKHA_CONSENSUS_TIE_BREAK",
		"ocr.engines":              "LEKHA_OCR_ENGINES",
		"ocr.languages":            "LEKHA_OCR_LANGUAGES",
		"ocr.hocr_dir":             "LEKHA_OCR_HOCR_DIR",
		"ocr.kraken_model":         "LEKHA_OCR_KRAKEN_MODEL",
		"ocr.timeout":              "LEKHA_OCR_TIMEOUT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// PaaS hosts set PORT. Use it if LEKHA_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LEKHA_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:            v.GetString("db.host"),
		Port:            v.GetInt("db.port"),
		User:            v.GetString("db.user"),
		Password:        v.GetString("db.password"),
		Name:            v.GetString("db.name"),
		SSLMode:         v.GetString("db.sslmode"),
		MaxOpen:         v.GetInt("db.max_open"),
		MaxIdle:         v.GetInt("db.max_idle"),
		ConnectAttempts: v.GetUint("db.connect_attempts"),
		ConnectDelay:    v.GetDuration("db.connect_delay"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxPageSizeMB: v.GetInt64("s3.max_page_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Alignment = AlignmentConfig{
		LineOverlap: v.GetFloat64("alignment.line_overlap"),
		WordOverlap: v.GetFloat64("alignment.word_overlap"),
	}
	tieBreak, err := consensus.ParseTieBreak(v.GetString("consensus.tie_break"))
	if err != nil {
		return nil, fmt.Errorf("consensus.tie_break: %w", err)
	}
	cfg.Consensus = ConsensusConfig{
		PrimaryEngine: v.GetString("consensus.primary_engine"),
		TieBreak:      tieBreak,
	}
	cfg.OCR = OCRConfig{
		Engines:     splitList(v.GetString("ocr.engines")),
		Languages:   splitList(v.GetString("ocr.languages")),
		HOCRDir:     v.GetString("ocr.hocr_dir"),
		KrakenModel: v.GetString("ocr.kraken_model"),
		Timeout:     v.GetDuration("ocr.timeout"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for name, val := range map[string]float64{
		"alignment.line_overlap": c.Alignment.LineOverlap,
		"alignment.word_overlap": c.Alignment.WordOverlap,
	} {
		if val <= 0 || val > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, val)
		}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if len(c.OCR.Engines) == 0 {
		return fmt.Errorf("ocr.engines must name at least one engine")
	}
	return nil
}

// splitList parses a comma-separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
