package ui

import (
	"context"
	"testing"

	"taskapp/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func typed(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func TestModel_LoginAddToggleLogout(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, storage.NewMemoryBackend(), nil)
	require.NoError(t, a.Initialize(ctx))

	m := NewModel(ctx, a)
	assert.Equal(t, modeLogin, m.mode)
	assert.Contains(t, m.View(), "Username")

	m = press(t, m, typed("demo"), key(tea.KeyEnter))
	require.Equal(t, modeMain, m.mode)
	assert.Equal(t, LoggedIn, a.State())
	assert.Contains(t, m.View(), "Welcome, Demo User!")
	assert.Contains(t, m.View(), "No tasks yet. Add one!")

	m = press(t, m, typed("a"))
	require.Equal(t, modeAddTask, m.mode)
	m = press(t, m, typed("Water plants"), key(tea.KeyEnter))
	require.Equal(t, modeMain, m.mode)
	require.Len(t, a.View().Tasks(), 1)
	assert.Contains(t, m.View(), "#1 Water plants")

	m = press(t, m, typed(" "))
	assert.True(t, a.View().Tasks()[0].Completed)

	m = press(t, m, typed("l"))
	assert.Equal(t, modeLogin, m.mode)
	assert.Equal(t, LoggedOut, a.State())
}

func TestModel_RegisterPrefillsUsername(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, storage.NewMemoryBackend(), nil)
	require.NoError(t, a.Initialize(ctx))

	m := NewModel(ctx, a)
	m = press(t, m, key(tea.KeyCtrlR))
	require.Equal(t, modeRegister, m.mode)

	m = press(t, m, typed("carol"), key(tea.KeyTab), typed("not-an-email"), key(tea.KeyEnter))
	assert.Equal(t, modeRegister, m.mode, "invalid email keeps the modal open")
	assert.Contains(t, m.View(), "email must be a valid email address")

	m = press(t, m, key(tea.KeyEsc))
	assert.Equal(t, modeLogin, m.mode)

	m = press(t, m, key(tea.KeyCtrlR), typed("carol"), key(tea.KeyEnter))
	assert.Equal(t, modeLogin, m.mode)
	assert.Equal(t, "carol", m.username.Value())
	assert.Contains(t, m.View(), "Registration successful!")
}
