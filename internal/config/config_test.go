package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grazerhq/grazer/internal/llm"
	"github.com/grazerhq/grazer/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, NewValidator().Validate(cfg))

	assert.Equal(t, "Cambridge, England", cfg.Area.Descriptor)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 0.95, cfg.LLM.TopP)
	assert.Equal(t, 42, cfg.LLM.Seed)
	assert.Equal(t, 90*time.Minute, cfg.Schedule.MealDuration)
	assert.Equal(t, 4.5, cfg.Schedule.TravelSpeedKmh)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
run:
  timeout: 2m
area:
  descriptor: "Oxford, England"
  radius_meters: 1500
  cuisines: [italian, indian]
schedule:
  day_start: "09:30"
  day_end: "21:00"
  meal_duration: 1h
llm:
  provider: mock
  model: mock-model
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Run.Timeout)
	assert.Equal(t, "Oxford, England", cfg.Area.Descriptor)
	assert.Equal(t, 1500, cfg.Area.RadiusMeters)
	assert.Equal(t, []string{"italian", "indian"}, cfg.Area.Cuisines)
	assert.Equal(t, types.ClockTime(9*60+30), cfg.Schedule.DayStart)
	assert.Equal(t, types.ClockTime(21*60), cfg.Schedule.DayEnd)
	assert.Equal(t, time.Hour, cfg.Schedule.MealDuration)
	assert.Equal(t, llm.ProviderMock, cfg.LLM.Provider)

	// Unset keys keep their defaults.
	assert.Equal(t, 4.5, cfg.Schedule.TravelSpeedKmh)
	assert.Equal(t, 42, cfg.LLM.Seed)
}

func TestLoad_EnvInterpolation(t *testing.T) {
	t.Setenv("TEST_GRAZER_KEY", "sk-secret")
	path := writeConfig(t, `
llm:
  provider: openai
  model: gpt-4o
  api_key: "${TEST_GRAZER_KEY}"
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.LLM.APIKey)
}

func TestLoad_UnsetEnvVarLeftVerbatim(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: openai
  model: gpt-4o
  api_key: "${GRAZER_DOES_NOT_EXIST}"
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${GRAZER_DOES_NOT_EXIST}", cfg.LLM.APIKey)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad day bounds", "schedule:\n  day_start: \"22:00\"\n  day_end: \"08:00\"\n"},
		{"bad provider", "llm:\n  provider: telex\n  model: m\n"},
		{"radius too small", "area:\n  descriptor: x\n  radius_meters: 5\n"},
		{"empty descriptor", "area:\n  descriptor: \"\"\n"},
		{"bad clock time", "schedule:\n  day_start: \"9am\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(NewValidator()).Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoadWithDefaults_MissingFile(t *testing.T) {
	cfg, err := NewLoader(NewValidator()).LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Cambridge, England", cfg.Area.Descriptor)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := NewLoader(NewValidator()).Load(writeConfig(t, "::: not yaml"))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CONFIG_LOAD_FAILED))
}

func TestValidator_NilConfig(t *testing.T) {
	err := NewValidator().Validate(nil)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CONFIG_VALIDATION_FAILED))
}
