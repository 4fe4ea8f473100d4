package config

import (
	"os"
	"path/filepath"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedFlags(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	f := Flags("test")
	require.NoError(t, f.Parse(args))
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", parsedFlags(t))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "recall.db", cfg.DB)
	assert.Equal(t, "repos", cfg.ReposDir)
	assert.Equal(t, 20, cfg.DueLimit)
	assert.False(t, cfg.NoBrowser)
	assert.Equal(t, "development", cfg.LogMode)
	assert.Equal(t, ":8000", cfg.Addr())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\ndue-limit: 5\n"), 0o644))

	cfg, err := Load(path, parsedFlags(t))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5, cfg.DueLimit)
	assert.Equal(t, "recall.db", cfg.DB, "untouched keys keep their defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0o644))

	t.Setenv("RECALL_PORT", "9001")
	t.Setenv("RECALL_NO_BROWSER", "true")

	cfg, err := Load(path, parsedFlags(t))
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.True(t, cfg.NoBrowser)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	t.Setenv("RECALL_PORT", "9001")

	cfg, err := Load("", parsedFlags(t, "--port", "7777", "--log-mode", "production"))
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Port)
	assert.Equal(t, "production", cfg.LogMode)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("RECALL_PORT", "0")
	_, err := Load("", parsedFlags(t))
	assert.Error(t, err)

	t.Setenv("RECALL_PORT", "8000")
	t.Setenv("RECALL_LOG_MODE", "loud")
	_, err = Load("", parsedFlags(t))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"), parsedFlags(t))
	assert.Error(t, err)
}
