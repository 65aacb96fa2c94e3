package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withEnv(t *testing.T, values map[string]string) {
	t.Helper()
	prev := Env
	Env = values
	t.Cleanup(func() { Env = prev })
}

func TestGetEnv_PrefersLoadedFile(t *testing.T) {
	withEnv(t, map[string]string{"CLUB_TEAM_NAME": "FC ESCUELA"})
	t.Setenv("CLUB_TEAM_NAME", "from-os")

	assert.Equal(t, "FC ESCUELA", GetEnv("CLUB_TEAM_NAME", "x"))
	assert.Equal(t, "fallback", GetEnv("MISSING_KEY_FOR_TEST", "fallback"))
}

func TestTypedHelpers(t *testing.T) {
	withEnv(t, map[string]string{
		"INT_OK":      "42",
		"INT_BAD":     "forty",
		"BOOL_OK":     "true",
		"DURATION_OK": "90s",
		"LIST_OK":     "a, b,,c",
		"CENTS":       "3000",
	})

	assert.Equal(t, 42, GetEnvInt("INT_OK", 1))
	assert.Equal(t, 1, GetEnvInt("INT_BAD", 1))
	assert.Equal(t, int64(3000), GetEnvInt64("CENTS", 0))
	assert.True(t, GetEnvBool("BOOL_OK", false))
	assert.False(t, GetEnvBool("BOOL_MISSING", false))
	assert.Equal(t, 90*time.Second, GetEnvDuration("DURATION_OK", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("DURATION_MISSING", time.Minute))
	assert.Equal(t, []string{"a", "b", "c"}, GetEnvList("LIST_OK", nil))
	assert.Equal(t, []string{"x"}, GetEnvList("LIST_MISSING", []string{"x"}))
}
