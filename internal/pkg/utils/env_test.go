package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Run("Falls Back To Default When Unset", func(t *testing.T) {
		assert.Equal(t, "fallback", GetEnvString("MATERNITY_TEST_UNSET_STRING", "fallback"))
		assert.Equal(t, 7, GetEnvInt("MATERNITY_TEST_UNSET_INT", 7))
		assert.Equal(t, 5*time.Second, GetEnvDuration("MATERNITY_TEST_UNSET_DURATION", 5*time.Second))
	})

	t.Run("Parses Durations", func(t *testing.T) {
		t.Setenv("MATERNITY_TEST_DURATION", "2m")
		assert.Equal(t, 2*time.Minute, GetEnvDuration("MATERNITY_TEST_DURATION", time.Second))
	})

	t.Run("Invalid Values Use Default", func(t *testing.T) {
		t.Setenv("MATERNITY_TEST_BAD_INT", "twelve")
		t.Setenv("MATERNITY_TEST_BAD_DURATION", "soon")
		assert.Equal(t, 12, GetEnvInt("MATERNITY_TEST_BAD_INT", 12))
		assert.Equal(t, time.Second, GetEnvDuration("MATERNITY_TEST_BAD_DURATION", time.Second))
	})
}
