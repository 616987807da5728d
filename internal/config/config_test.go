package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("MAX_SEGMENT_MM")
	os.Unsetenv("API_KEYS")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.InDelta(t, 0.5, cfg.MaxSegment, 1e-9)
	assert.Empty(t, cfg.APIKeys)
	assert.Equal(t, 8080, cfg.GetPortInt())
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_SEGMENT_MM", "1.25")
	t.Setenv("API_KEYS", "key-a, key-b ,key-c")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.InDelta(t, 1.25, cfg.MaxSegment, 1e-9)
	assert.Equal(t, []string{"key-a", "key-b", "key-c"}, cfg.APIKeys)
}

func TestLoad_InvalidMaxSegmentFallsBackToDefault(t *testing.T) {
	t.Setenv("MAX_SEGMENT_MM", "not-a-number")
	cfg := Load()
	assert.InDelta(t, 0.5, cfg.MaxSegment, 1e-9)
}
