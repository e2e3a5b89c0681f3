package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type QdrantConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
	VectorSize uint64 `mapstructure:"vector_size"`
	TopK       int    `mapstructure:"top_k"`
}

type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	EmbedModel  string        `mapstructure:"embed_model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

// ArchiveConfig selects where original uploads are kept. Backend "none" keeps nothing.
type ArchiveConfig struct {
	Backend string   `mapstructure:"backend"`
	Path    string   `mapstructure:"path"`
	S3      S3Config `mapstructure:"s3"`
}

// S3Config also covers Cloudflare R2: set AccountID and leave Endpoint empty.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccountID string `mapstructure:"account_id"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type LoggingConfig struct {
	Debug bool `mapstructure:"debug"`
	JSON  bool `mapstructure:"json"`
}

var envBindings = map[string][]string{
	"server.port":           {"PORT"},
	"server.env":            {"ENV"},
	"server.read_timeout":   {"SERVER_READ_TIMEOUT"},
	"server.write_timeout":  {"SERVER_WRITE_TIMEOUT"},
	"database.enabled":      {"DB_ENABLED"},
	"database.host":         {"DB_HOST"},
	"database.port":         {"DB_PORT"},
	"database.user":         {"DB_USER"},
	"database.password":     {"DB_PASSWORD"},
	"database.name":         {"DB_NAME"},
	"database.sslmode":      {"DB_SSLMODE"},
	"qdrant.enabled":        {"QDRANT_ENABLED"},
	"qdrant.url":            {"QDRANT_URL"},
	"qdrant.api_key":        {"QDRANT_API_KEY"},
	"qdrant.collection":     {"QDRANT_COLLECTION"},
	"qdrant.vector_size":    {"QDRANT_VECTOR_SIZE"},
	"qdrant.top_k":          {"QDRANT_TOP_K"},
	"gemini.api_key":        {"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY"},
	"gemini.model":          {"GEMINI_MODEL"},
	"gemini.embed_model":    {"GEMINI_EMBED_MODEL"},
	"gemini.temperature":    {"GEMINI_TEMPERATURE"},
	"gemini.timeout":        {"GEMINI_TIMEOUT"},
	"storage.max_file_size": {"MAX_FILE_SIZE"},
	"archive.backend":       {"ARCHIVE_BACKEND"},
	"archive.path":          {"ARCHIVE_PATH"},
	"archive.s3.bucket":     {"ARCHIVE_BUCKET", "R2_BUCKET"},
	"archive.s3.region":     {"ARCHIVE_REGION"},
	"archive.s3.endpoint":   {"ARCHIVE_ENDPOINT"},
	"archive.s3.account_id": {"R2_ACCOUNT_ID"},
	"archive.s3.access_key": {"ARCHIVE_ACCESS_KEY", "R2_ACCESS_KEY"},
	"archive.s3.secret_key": {"ARCHIVE_SECRET_KEY", "R2_SECRET_KEY"},
	"logging.debug":         {"LOG_DEBUG"},
	"logging.json":          {"LOG_JSON"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "rezoomai")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("qdrant.enabled", false)
	v.SetDefault("qdrant.url", "http://localhost:6334")
	v.SetDefault("qdrant.api_key", "")
	v.SetDefault("qdrant.collection", "resume_guidance")
	v.SetDefault("qdrant.vector_size", 768)
	v.SetDefault("qdrant.top_k", 3)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.embed_model", "text-embedding-004")
	v.SetDefault("gemini.temperature", 0.4)
	v.SetDefault("gemini.timeout", "60s")

	v.SetDefault("storage.max_file_size", 10485760)

	v.SetDefault("archive.backend", ArchiveNone)
	v.SetDefault("archive.path", "./uploads")
	v.SetDefault("archive.s3.bucket", "")
	v.SetDefault("archive.s3.region", "auto")
	v.SetDefault("archive.s3.endpoint", "")
	v.SetDefault("archive.s3.account_id", "")
	v.SetDefault("archive.s3.access_key", "")
	v.SetDefault("archive.s3.secret_key", "")

	v.SetDefault("logging.debug", false)
	v.SetDefault("logging.json", false)
}

// Load resolves configuration from defaults, an optional YAML file, a .env file and
// the environment, in increasing order of precedence. An empty file means
// rezoomai.yaml in the working directory, which may be absent.
func Load(v *viper.Viper, file string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	setDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("rezoomai")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Archive.Backend = strings.ToLower(strings.TrimSpace(cfg.Archive.Backend))

	return &cfg, nil
}

// Validate reports settings the API server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		errs = append(errs, errors.New("gemini api key is required (GEMINI_API_KEY)"))
	}
	if c.Storage.MaxFileSize <= 0 {
		errs = append(errs, errors.New("storage.max_file_size must be positive"))
	}
	if c.Gemini.Timeout <= 0 {
		errs = append(errs, errors.New("gemini.timeout must be positive"))
	}

	switch c.Archive.Backend {
	case ArchiveNone, ArchiveLocal:
	case ArchiveS3:
		if c.Archive.S3.Bucket == "" {
			errs = append(errs, errors.New("archive.s3.bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown archive backend %q", c.Archive.Backend))
	}

	return errors.Join(errs...)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}
