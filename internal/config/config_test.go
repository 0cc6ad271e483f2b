package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Rs", cfg.Invoice.CurrencyPrefix)
	assert.Equal(t, 5, cfg.Invoice.DraftRows)
	assert.True(t, cfg.Export.NativeEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
invoice:
  currency_prefix: "$"
  draft_rows: 8
company:
  name: Wattsun Solar
  email: billing@wattsun.example
export:
  native_enabled: false
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "$", cfg.Invoice.CurrencyPrefix)
	assert.Equal(t, 8, cfg.Invoice.DraftRows)
	assert.Equal(t, "Wattsun Solar", cfg.Company.Name)
	assert.False(t, cfg.Export.NativeEnabled)
	// untouched keys keep their defaults
	assert.NotEmpty(t, cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"zero rows": "invoice:\n  draft_rows: 0\n",
		"bad email": "company:\n  email: not-an-email\n",
		"bad level": "log:\n  level: loud\n",
		"bad yaml":  "invoice: [\n",
		"empty db":  "database:\n  path: \"\"\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Company.Name = "Wattsun"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "db", "wattsun.db")
	cfg.Invoice.OutputDir = filepath.Join(dir, "out")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, filepath.Join(dir, "db"))
	assert.DirExists(t, filepath.Join(dir, "out"))
}
