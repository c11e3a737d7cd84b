package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "xraysync", cfg.App.Name)
	assert.Equal(t, "xray_server", cfg.Container.Name)
	assert.Equal(t, "local", cfg.Sync.Mode)
	assert.Equal(t, 12*time.Hour, cfg.GetSyncInterval())
	assert.Equal(t, 15*time.Second, cfg.GetSyncTimeout())
	require.Len(t, cfg.Sync.Artifacts, 2)
	assert.Equal(t, "geoip.dat", cfg.Sync.Artifacts[0].Name)
	assert.Equal(t, ":8090", cfg.Admin.Listen)
	assert.Equal(t, 500, cfg.Database.KeepRuns)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_OverridesAndArtifactPathDefault(t *testing.T) {
	path := writeConfig(t, `
sync:
  interval: 6h
  mode: container
  artifacts:
    - name: geoip.dat
      url: https://example.com/geoip.dat
container:
  name: my_xray
  data_dir: /data/xray
logging:
  level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 6*time.Hour, cfg.GetSyncInterval())
	assert.Equal(t, "container", cfg.Sync.Mode)
	assert.Equal(t, "my_xray", cfg.Container.Name)
	require.Len(t, cfg.Sync.Artifacts, 1)
	assert.Equal(t, "geoip.dat", cfg.Sync.Artifacts[0].Path, "path defaults to the artifact name")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_RejectsBadMode(t *testing.T) {
	path := writeConfig(t, "sync:\n  mode: remote\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_RejectsBadInterval(t *testing.T) {
	path := writeConfig(t, "sync:\n  interval: fortnightly\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_RejectsNonHTTPArtifactURL(t *testing.T) {
	path := writeConfig(t, `
sync:
  artifacts:
    - name: geoip.dat
      url: ftp://example.com/geoip.dat
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_RejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: verbose\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_HealthValidation(t *testing.T) {
	path := writeConfig(t, `
health:
  enabled: true
  probe_domain: "!!not-a-domain!!"
`)
	_, err := LoadConfig(path)
	require.Error(t, err)

	path = writeConfig(t, `
health:
  enabled: true
  probe_domain: www.example.com
  timeout: 10s
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.GetHealthTimeout())
}

func TestIsDebug(t *testing.T) {
	path := writeConfig(t, "app:\n  debug: true\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsDebug())
}
