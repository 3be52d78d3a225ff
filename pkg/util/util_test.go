package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"7d":    7 * 24 * time.Hour,
		"0":     0,
		"90":    90 * time.Second,
		"1h":    time.Hour,
		" 5m":   5 * time.Minute,
		"2w":    2 * Week,
		"1d12h": 36 * time.Hour,
		"1w1d":  8 * Day,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"xd", "", "1d1x", "d"} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestGetRandomString(t *testing.T) {
	a, b := GetRandomString(32), GetRandomString(32)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^[a-zA-Z0-9]+$`, a)
}
