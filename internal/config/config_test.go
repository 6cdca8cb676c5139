package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "openai", cfg.Provider.Kind)
	assert.Equal(t, ".", cfg.Engine.TriggerPrefix)
	assert.Equal(t, 2000, cfg.Engine.PollIntervalMs)
	assert.Equal(t, 10, cfg.Engine.HistoryLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.ToolsEnabled())
	assert.InDelta(t, 0.3, cfg.StickerProbability(), 1e-9)
	assert.NotEmpty(t, cfg.Persona.SystemPrompt)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Engine.TriggerPrefix)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
provider:
  kind: volcengine
  apiKey: sk-test
  model: doubao-pro
engine:
  triggerPrefix: "!"
  historyLimit: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "volcengine", cfg.Provider.Kind)
	assert.Equal(t, "doubao-pro", cfg.Provider.Model)
	assert.Equal(t, "!", cfg.Engine.TriggerPrefix)
	assert.Equal(t, 5, cfg.Engine.HistoryLimit)
	// Untouched fields keep defaults
	assert.Equal(t, 2000, cfg.Engine.PollIntervalMs)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadExpandsAPIKeyEnvVar(t *testing.T) {
	t.Setenv("IMBOT_TEST_SECRET", "sk-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
provider:
  kind: openai
  apiKey: ${IMBOT_TEST_SECRET}
  model: gpt-4o
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Provider.APIKey)
}

func TestLoadUnsetEnvVarLeftUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
provider:
  apiKey: ${IMBOT_DOES_NOT_EXIST_XYZ}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${IMBOT_DOES_NOT_EXIST_XYZ}", cfg.Provider.APIKey)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IMBOT_PROVIDER", "Ollama")
	t.Setenv("IMBOT_MODEL", "qwen2.5")
	t.Setenv("IMBOT_LOG_LEVEL", "DEBUG")
	t.Setenv("IMBOT_STATUS_PORT", "19090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider.Kind)
	assert.Equal(t, "qwen2.5", cfg.Provider.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 19090, cfg.Status.Port)
}

func TestSaveRawRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := map[string]any{
		"provider": map[string]any{"kind": "ollama", "model": "llama3"},
	}
	require.NoError(t, SaveRaw(path, raw))

	loaded, err := LoadRaw(path)
	require.NoError(t, err)
	val, ok := GetValueAtPath(loaded, []string{"provider", "model"})
	require.True(t, ok)
	assert.Equal(t, "llama3", val)
}
