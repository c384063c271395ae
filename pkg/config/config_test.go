package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orbitfm/fileops/pkg/config"
	"github.com/orbitfm/fileops/pkg/conflict"
	"github.com/orbitfm/fileops/pkg/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// 🧪 TestLoadYAML tests the YAML format with every field set
func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "fileops.yaml", `
workers: 8
trash_dir: /tmp/fileops-trash
cleanup_max_age: 30m
response_timeout: 1m
log_level: debug
exclude:
  - "*.tmp"
  - "**/node_modules/**"
on_conflict: keep-both
on_error: retry
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "/tmp/fileops-trash", cfg.TrashDir)
	assert.Equal(t, 30*time.Minute, cfg.CleanupMaxAge)
	assert.Equal(t, time.Minute, cfg.ResponseTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Len(t, cfg.Exclude, 2)
	assert.Equal(t, conflict.ResolutionKeepBoth, cfg.OnConflict)
	assert.Equal(t, operation.ActionRetry, cfg.OnError)
	assert.Equal(t, path, cfg.Location())
}

// 🧪 TestLoadHCL tests the HCL format, including env interpolation
func TestLoadHCL(t *testing.T) {
	t.Setenv("FILEOPS_TEST_DIR", "/var/fileops")

	path := writeConfig(t, "fileops.hcl", `
workers     = 2
trash_dir   = "${env.FILEOPS_TEST_DIR}/trash"
on_conflict = "replace"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "/var/fileops/trash", cfg.TrashDir)
	assert.Equal(t, conflict.ResolutionReplace, cfg.OnConflict)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "fileops.json", `{
  "workers": 3,
  "on_error": "cancel"
}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, operation.ActionCancel, cfg.OnError)
}

// 🧪 TestLoadDefaults tests that unset fields keep their defaults
func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "fileops.yaml", `workers: 1`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	def := config.Default()
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, def.CleanupMaxAge, cfg.CleanupMaxAge)
	assert.Equal(t, def.ResponseTimeout, cfg.ResponseTimeout)
	assert.Equal(t, def.LogLevel, cfg.LogLevel)
	assert.Equal(t, def.OnConflict, cfg.OnConflict)
	assert.Equal(t, def.OnError, cfg.OnError)
}

func TestLoadFileopsrcTriesBothFormats(t *testing.T) {
	yamlPath := writeConfig(t, ".fileopsrc", `workers: 5`)
	cfg, err := config.Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)

	hclPath := writeConfig(t, ".fileopsrc", `workers = 6`)
	cfg, err = config.Load(hclPath)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Workers)
}

// 🧪 TestLoadRejects tests validation and parse failures
func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"negative_workers", "c.yaml", `workers: -1`},
		{"bad_duration", "c.yaml", `cleanup_max_age: soon`},
		{"bad_log_level", "c.yaml", `log_level: loud`},
		{"bad_conflict", "c.yaml", `on_conflict: explode`},
		{"bad_error_action", "c.yaml", `on_error: panic`},
		{"unknown_field", "c.yaml", `shiny: true`},
		{"unknown_extension", "c.toml", `workers = 1`},
		{"bad_json", "c.json", `{`},
		{"bad_hcl", "c.hcl", `workers = `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
