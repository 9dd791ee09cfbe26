package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{"-d", "test.db", "-addr", ":9090", "-u", "root", "-hash", "md5", "-token-ttl", "2h"})
	require.NoError(t, err)
	assert.Equal(t, "test.db", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "root", cfg.AdminUser)
	assert.Equal(t, "md5", cfg.HashAlgo)
	assert.Equal(t, Duration(2*time.Hour), cfg.TokenTTL)
}

func writeConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadJSONThenFlags(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"db":        "from-file.db",
		"addr":      ":7000",
		"token_ttl": "30m",
		"storage":   "s3",
		"s3": map[string]any{
			"bucket":     "images",
			"path_style": true,
		},
	})

	cfg, err := Load([]string{"-config", path, "-a", ":7001"})
	require.NoError(t, err)
	assert.Equal(t, "from-file.db", cfg.DBPath)
	assert.Equal(t, ":7001", cfg.Addr, "flag overrides file")
	assert.Equal(t, Duration(30*time.Minute), cfg.TokenTTL)
	assert.Equal(t, StorageS3, cfg.Storage)
	assert.Equal(t, "images", cfg.S3.Bucket)
	assert.True(t, cfg.S3.PathStyle)
	assert.Equal(t, "items/", cfg.S3.Prefix, "default kept when file omits it")
}

func TestLoadJSONNumericDuration(t *testing.T) {
	path := writeConfig(t, map[string]any{"token_ttl": int64(time.Hour)})
	cfg, err := Load([]string{"-c=" + path})
	require.NoError(t, err)
	assert.Equal(t, Duration(time.Hour), cfg.TokenTTL)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"positional", []string{"extra"}},
		{"unknown storage", []string{"-s", "ftp"}},
		{"s3 without bucket", []string{"-storage", "s3"}},
		{"zero upload", []string{"-max-upload", "0"}},
		{"verify with s3", []string{"-s", "s3", "-s3-bucket", "images", "-verify-images"}},
		{"missing file", []string{"-c", filepath.Join(t.TempDir(), "missing.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token_ttl": "soon"}`), 0o600))
	_, err := Load([]string{"-c", path})
	assert.Error(t, err)
}
