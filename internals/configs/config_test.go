package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEngineConfigDefaults(t *testing.T) {
	for _, k := range []string{"CLEANUP_MAX_ATTEMPTS", "CLEANUP_BACKOFF_STEP", "EXPORT_TIMEOUT", "OBJECT_STORE"} {
		t.Setenv(k, "")
	}

	cfg := LoadEngineConfig()
	assert.Equal(t, 3, cfg.CleanupMaxAttempts)
	assert.Equal(t, time.Second, cfg.CleanupBackoffStep)
	assert.Equal(t, 30*time.Minute, cfg.ExportTimeout)
	// empty but set OBJECT_STORE is kept as-is
	assert.Equal(t, "", cfg.ObjectStore)
}

func TestLoadEngineConfigOverrides(t *testing.T) {
	t.Setenv("CLEANUP_MAX_ATTEMPTS", "0")
	t.Setenv("CLEANUP_BACKOFF_STEP", "250ms")
	t.Setenv("OBJECT_STORE", "Memory")
	t.Setenv("EXPORT_TIMEOUT", "not-a-duration")

	cfg := LoadEngineConfig()
	assert.Equal(t, 1, cfg.CleanupMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.CleanupBackoffStep)
	assert.Equal(t, "memory", cfg.ObjectStore)
	assert.Equal(t, 30*time.Minute, cfg.ExportTimeout)
}
