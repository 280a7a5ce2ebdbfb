package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DOCUMENTS_DIR", "/srv/docs")
	t.Setenv("MAX_UPLOAD_MB", "20")
	t.Setenv("SEED_STATIC_DOCUMENTS", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Load()

	assert.Equal(t, "/srv/docs", cfg.Documents.Dir)
	assert.Equal(t, 20, cfg.Documents.MaxUploadMB)
	assert.True(t, cfg.Documents.SeedStatic)
	assert.Equal(t, "local", cfg.Documents.StorageBackend)
	assert.Equal(t, "json", cfg.Documents.MetadataBackend)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 300, cfg.Redis.TTLSec)
	assert.Equal(t, "documents", cfg.NATS.SubjectPrefix)
}

func TestDocumentsConfig_MetadataPath(t *testing.T) {
	d := DocumentsConfig{Dir: "/srv/docs", MetadataFile: "metadata.json"}
	assert.Equal(t, "/srv/docs/metadata.json", d.MetadataPath())

	d.MetadataFile = "/var/lib/doclib/meta.json"
	assert.Equal(t, "/var/lib/doclib/meta.json", d.MetadataPath())

	d = DocumentsConfig{Dir: "documents", MetadataFile: "metadata.json"}
	assert.True(t, filepath.IsAbs(d.MetadataPath()))
}

func TestAppConfig_Location(t *testing.T) {
	cfg := &AppConfig{Timezone: "UTC"}
	assert.Equal(t, time.UTC.String(), cfg.Location().String())

	cfg.Timezone = "Not/AZone"
	assert.Equal(t, time.Local, cfg.Location())

	cfg.Timezone = ""
	assert.Equal(t, time.Local, cfg.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
