package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL settings for the optional SQL metadata backend.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds settings for the document list cache. Empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTLSec   int
}

// NATSConfig holds settings for document event publication. Empty URL disables it.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// ChatConfig points at an OpenAI-compatible chat completions upstream.
type ChatConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	TimeoutSec int
}

// DocumentsConfig controls where documents and their metadata live.
type DocumentsConfig struct {
	// Dir is the storage root for binaries and, by default, metadata.json.
	Dir string
	// MetadataFile is the JSON array file. Relative paths resolve against Dir.
	MetadataFile string
	// StorageBackend is "local" or "minio".
	StorageBackend string
	// MetadataBackend is "json" or "postgres".
	MetadataBackend string
	MaxUploadMB     int
	SeedStatic      bool
}

// MetadataPath returns the absolute location of the metadata file.
func (d DocumentsConfig) MetadataPath() string {
	p := d.MetadataFile
	if !filepath.IsAbs(p) {
		p = filepath.Join(d.Dir, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Timezone  string
	Documents DocumentsConfig
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Chat      ChatConfig
}

// Location resolves Timezone, falling back to the server's local zone.
func (c *AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", ""),
		Documents: DocumentsConfig{
			Dir:             getEnv("DOCUMENTS_DIR", "documents"),
			MetadataFile:    getEnv("METADATA_FILE", "metadata.json"),
			StorageBackend:  getEnv("STORAGE_BACKEND", "local"),
			MetadataBackend: getEnv("METADATA_BACKEND", "json"),
			MaxUploadMB:     getEnvInt("MAX_UPLOAD_MB", 50),
			SeedStatic:      getEnvBool("SEED_STATIC_DOCUMENTS", false),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTLSec:   getEnvInt("REDIS_TTL_SEC", 300),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "documents"),
		},
		Chat: ChatConfig{
			BaseURL:    getEnv("CHAT_BASE_URL", ""),
			APIKey:     getEnv("CHAT_API_KEY", ""),
			Model:      getEnv("CHAT_MODEL", "gpt-4o-mini"),
			TimeoutSec: getEnvInt("CHAT_TIMEOUT_SEC", 120),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
