package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type portalConfig struct {
	BaseUrl  string `json:"baseUrl"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	require.NoError(t, err)
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		baseUrl: "https://portal.example.com",
		username: "10123",
	}`)

	cfg, err := ReadConfig[portalConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://portal.example.com", cfg.BaseUrl)
	require.Equal(t, "10123", cfg.Username)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		baseUrl: "https://portal.example.com",
		username: "10123",
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{
		username: "10999",
		password: "hunter2",
	}`)

	cfg, err := ReadConfig[portalConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)

	// the local layer wins where both define a value, the base survives
	// everywhere else
	require.Equal(t, "https://portal.example.com", cfg.BaseUrl)
	require.Equal(t, "10999", cfg.Username)
	require.Equal(t, "hunter2", cfg.Password)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{
		baseUrl: "https://portal.example.com",
	}`)

	cfg, err := ReadConfig[portalConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://portal.example.com", cfg.BaseUrl)
}

func TestReadConfigMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadConfig[portalConfig](filepath.Join(dir, "config.json5"))
	require.True(t, os.IsNotExist(err))
}
