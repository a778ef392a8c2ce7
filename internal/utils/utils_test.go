package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationEnv(t *testing.T) {
	cases := map[string]time.Duration{
		"10":     10 * time.Second,
		"10s":    10 * time.Second,
		"5m":     5 * time.Minute,
		`"90s"`:  90 * time.Second,
		" '2h' ": 2 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDurationEnv(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDurationEnv("")
	assert.Error(t, err)
	_, err = ParseDurationEnv("ten")
	assert.Error(t, err)
}

func TestParseRedisURL(t *testing.T) {
	addr, pw, db, err := ParseRedisURL("rediss://user:pw@host:6380/3")
	require.NoError(t, err)
	assert.Equal(t, "host:6380", addr)
	assert.Equal(t, "pw", pw)
	assert.Equal(t, 3, db)

	addr, pw, db, err = ParseRedisURL("redis://localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", addr)
	assert.Empty(t, pw)
	assert.Zero(t, db)

	_, _, _, err = ParseRedisURL("http://localhost")
	assert.Error(t, err)
	_, _, _, err = ParseRedisURL("redis://")
	assert.Error(t, err)
	_, _, _, err = ParseRedisURL("redis://host:1/abc")
	assert.Error(t, err)
}
