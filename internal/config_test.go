package internal

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/DukeRupert/fetch/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fetch")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 30*time.Minute, cfg.SelectorIdleTimeout)
	assert.Equal(t, domain.UploadModePerPhoto, cfg.UploadMode)
	assert.Equal(t, domain.DefaultFeedLimit, cfg.FeedLimit)
	assert.Equal(t, storage.ProviderLocal, cfg.StorageProvider)
	assert.True(t, cfg.LibraryAccessGranted)
}

func TestNewConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := NewConfig()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestNewConfig_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"upload mode":      {"UPLOAD_MODE": "album"},
		"feed limit":       {"FEED_LIMIT": "-1"},
		"storage provider": {"STORAGE_PROVIDER": "ftp"},
		"r2 account":       {"STORAGE_PROVIDER": "r2", "S3_ACCESS_KEY_ID": "k", "S3_SECRET_ACCESS_KEY": "s", "S3_BUCKET_NAME": "b"},
		"s3 bucket":        {"STORAGE_PROVIDER": "s3", "S3_ACCESS_KEY_ID": "k", "S3_SECRET_ACCESS_KEY": "s"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/fetch")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

func TestConfig_ObjectStorageConfig(t *testing.T) {
	cfg := &Config{
		StorageProvider:   storage.ProviderR2,
		R2AccountID:       "acct",
		S3Endpoint:        "http://ignored",
		S3AccessKeyID:     "k",
		S3SecretAccessKey: "s",
		S3BucketName:      "photos",
	}
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com", cfg.ObjectStorageConfig().Endpoint)

	cfg.StorageProvider = storage.ProviderS3
	oc := cfg.ObjectStorageConfig()
	assert.Equal(t, "http://ignored", oc.Endpoint)
	assert.Equal(t, "photos", oc.BucketName)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "warn")

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "fetch", entry["service"])
	assert.Equal(t, "v", entry["k"])

	buf.Reset()
	NewLogger(&buf, "development", "bogus").Debug("dropped")
	assert.Empty(t, buf.String())
}
