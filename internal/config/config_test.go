package config_test

import (
	"os"
	"testing"
	"time"

	"storygraph-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDBID = "a7f3b2c1-0d4e-4f5a-8b6c-9d0e1f2a3b4c"

func setWorkspaceEnv(t *testing.T) {
	t.Setenv("NOTION_API_KEY", "secret_test")
	t.Setenv("NOTION_CHARACTERS_DB", testDBID)
	t.Setenv("NOTION_ELEMENTS_DB", testDBID)
	t.Setenv("NOTION_PUZZLES_DB", testDBID)
	t.Setenv("NOTION_TIMELINE_DB", testDBID)
}

func TestLoadConfig_Defaults(t *testing.T) {
	setWorkspaceEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, config.Development, cfg.Environment)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, 3, cfg.RateLimitReservoir)
	assert.Equal(t, time.Second, cfg.RateLimitInterval)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 1000, cfg.CacheMaxEntries)
	assert.True(t, cfg.EnableCaching)
	assert.True(t, cfg.EnableRateLimit)
	assert.Equal(t, "https://api.notion.com/v1", cfg.NotionBaseURL)
	assert.Equal(t, "2022-06-28", cfg.NotionVersion)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setWorkspaceEnv(t)
	t.Setenv("PORT", "8088")
	t.Setenv("RATE_LIMIT_RESERVOIR", "5")
	t.Setenv("CACHE_TTL", "300")
	t.Setenv("CACHE_CLEANUP_PERIOD", "2m")
	t.Setenv("ENABLE_CACHING", "false")
	t.Setenv("CORS_ORIGINS", "https://editor.example.com, https://staging.example.com")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Port)
	assert.Equal(t, 5, cfg.RateLimitReservoir)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL, "plain integers are seconds")
	assert.Equal(t, 2*time.Minute, cfg.CacheCleanupPeriod)
	assert.False(t, cfg.EnableCaching)
	assert.Equal(t, []string{"https://editor.example.com", "https://staging.example.com"}, cfg.CORSOrigins)
}

func TestLoadConfig_MissingToken(t *testing.T) {
	setWorkspaceEnv(t)
	t.Setenv("NOTION_API_KEY", "")

	_, err := config.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTION_API_KEY")
}

func TestLoadConfig_MalformedDatabaseID(t *testing.T) {
	setWorkspaceEnv(t)
	t.Setenv("NOTION_PUZZLES_DB", "not-a-uuid")

	_, err := config.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTION_PUZZLES_DB")
}

func TestLoadConfig_TestModeSkipsWorkspaceChecks(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Test, cfg.Environment)
}

func TestLoadConfig_YAMLOverlay(t *testing.T) {
	setWorkspaceEnv(t)

	overlay := t.TempDir() + "/local.yaml"
	require.NoError(t, os.WriteFile(overlay, []byte("port: 9105\nenableRateLimit: false\n"), 0o644))
	t.Setenv("CONFIG_FILE", overlay)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9105, cfg.Port)
	assert.False(t, cfg.EnableRateLimit)
	assert.Contains(t, cfg.LoadedFrom, overlay)
}

func TestValidate_Bounds(t *testing.T) {
	setWorkspaceEnv(t)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero reservoir", "RATE_LIMIT_RESERVOIR", "0"},
		{"zero cache entries", "CACHE_MAX_ENTRIES", "0"},
		{"port out of range", "PORT", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.LoadConfig()
			assert.Error(t, err)
		})
	}
}
