package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDueAt(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-02-19", time.Date(2026, 2, 19, 23, 59, 59, 0, time.UTC)},
		{"2026-02-19 08:30", time.Date(2026, 2, 19, 8, 30, 0, 0, time.UTC)},
		{"2026-02-19T08:30:00Z", time.Date(2026, 2, 19, 8, 30, 0, 0, time.UTC)},
		{"2026-02-19T08:30:00", time.Date(2026, 2, 19, 8, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseDueAt(tc.in, time.UTC)
		require.NoError(t, err, tc.in)
		require.NotNil(t, got, tc.in)
		assert.True(t, tc.want.Equal(*got), "%s: got %s", tc.in, got)
	}

	got, err := ParseDueAt("   ", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDueAt("next tuesday", time.UTC)
	assert.Error(t, err)
}

func TestUpdateTaskRequest_DueAtPresence(t *testing.T) {
	var absent UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &absent))
	in := absent.Input()
	assert.Nil(t, in.DueAt)
	assert.False(t, in.ClearDueAt)

	var cleared UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueAt":null}`), &cleared))
	assert.True(t, cleared.Input().ClearDueAt)

	var set UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueAt":"2030-01-01"}`), &set))
	in = set.Input()
	require.NotNil(t, in.DueAt)
	assert.False(t, in.ClearDueAt)
}

func TestCreateTaskRequest_BadDueAt(t *testing.T) {
	var req CreateTaskRequest
	err := json.Unmarshal([]byte(`{"title":"x","dueAt":"soon"}`), &req)
	assert.Error(t, err)
}
