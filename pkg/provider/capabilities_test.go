package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCapabilityFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCapabilitiesStoreLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeCapabilityFile(t, dir, "openai.yaml", `
provider: openai
default_model: gpt-5
api_model_map:
  gpt-5: gpt-5-2026-01-01
supports_json_schema: true
supports_json_mode: true
supports_tools: true
supports_seed: false
max_output_tokens: 4096
default_temperature: 0.0
`)

	store := NewCapabilitiesStore()
	require.NoError(t, store.LoadDir(dir))
	assert.True(t, store.Loaded())

	caps, ok := store.Get("openai")
	require.True(t, ok)
	assert.Equal(t, "gpt-5", caps.DefaultModel)
	assert.Equal(t, 4096, caps.MaxOutputTokens)
}

func TestCapabilitiesStoreRejectsMissingDefaultModel(t *testing.T) {
	dir := t.TempDir()
	writeCapabilityFile(t, dir, "broken.yaml", `
provider: broken
default_model: not-present
api_model_map:
  other: x
max_output_tokens: 100
`)

	store := NewCapabilitiesStore()
	err := store.LoadDir(dir)
	assert.Error(t, err)
}

func TestCapabilitiesStoreRejectsEmptyDir(t *testing.T) {
	dir := t.TempDir()
	store := NewCapabilitiesStore()
	err := store.LoadDir(dir)
	assert.Error(t, err)
}

func TestCapabilitiesStoreResetClearsCache(t *testing.T) {
	dir := t.TempDir()
	writeCapabilityFile(t, dir, "openai.yaml", `
provider: openai
default_model: gpt-5
api_model_map:
  gpt-5: gpt-5-2026-01-01
max_output_tokens: 1024
`)
	store := NewCapabilitiesStore()
	require.NoError(t, store.LoadDir(dir))
	store.Reset()
	assert.False(t, store.Loaded())
	_, ok := store.Get("openai")
	assert.False(t, ok)
}

func TestCapabilitiesValidateRequiresPositiveTokens(t *testing.T) {
	c := Capabilities{
		Provider:     "x",
		DefaultModel: "m",
		APIModelMap:  map[string]string{"m": "m-v1"},
	}
	assert.Error(t, c.Validate())
}
