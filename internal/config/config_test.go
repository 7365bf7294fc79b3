package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8091", cfg.Listen)
	assert.Equal(t, 90, cfg.Windows.MedicationDays)
	assert.Equal(t, 7, cfg.Windows.ReminderDays)
	assert.Equal(t, 60, cfg.GraceMinutes)
	assert.Equal(t, 30, cfg.PostponeMinutes)
}

func TestLoad_PartialFileNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: ":9000"
windows:
  medication_days: 14
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 14, cfg.Windows.MedicationDays)

	// Everything unset falls back to defaults.
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, 90, cfg.Windows.SupplementDays)
	assert.Equal(t, 7, cfg.Windows.ReminderDays)
	assert.Equal(t, 60, cfg.GraceMinutes)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
