package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	dom "taskapp/internal/domain"
	"taskapp/internal/repo"
	"taskapp/internal/storage"
	"taskapp/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, b storage.Backend, screen *view.Screen) *App {
	t.Helper()
	m, err := storage.NewManager(b, "taskAppDay2", "2.0")
	require.NoError(t, err)
	return New(Deps{
		Users:    repo.NewStorageUserRepo(m),
		Tasks:    repo.NewStorageTaskRepo(m),
		Screen:   screen,
		Location: time.UTC,
	})
}

func message(t *testing.T, a *App) view.Message {
	t.Helper()
	m, ok := a.View().Message()
	require.True(t, ok, "expected a status message")
	return m
}

func login(t *testing.T, a *App, username string) {
	t.Helper()
	require.NoError(t, a.Screen().SetValue(view.UsernameInput, username))
	require.NoError(t, a.HandleLogin(context.Background()))
	require.Equal(t, LoggedIn, a.State(), message(t, a).Text)
}

func TestInitialize_SeedsDemoUserOnce(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()

	a := newApp(t, b, nil)
	require.NoError(t, a.Initialize(ctx))
	assert.True(t, a.Screen().Visible(view.LoginSection))
	assert.False(t, a.Screen().Visible(view.MainContent))

	m, err := storage.NewManager(b, "taskAppDay2", "2.0")
	require.NoError(t, err)
	users := repo.NewStorageUserRepo(m)
	all, err := users.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "demo", all[0].Username)

	again := newApp(t, b, nil)
	require.NoError(t, again.Initialize(ctx))
	all, err = users.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestInitialize_MissingElement(t *testing.T) {
	a := newApp(t, storage.NewMemoryBackend(), view.NewScreen(view.LoginSection, view.MainContent))

	err := a.Initialize(context.Background())
	var missing *view.ElementMissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, view.UserInfo, missing.ID)
}

func TestHandleLogin_Blank(t *testing.T) {
	a := newApp(t, storage.NewMemoryBackend(), nil)
	require.NoError(t, a.Initialize(context.Background()))

	require.NoError(t, a.Screen().SetValue(view.UsernameInput, "   "))
	require.NoError(t, a.HandleLogin(context.Background()))
	assert.Equal(t, LoggedOut, a.State())
	m := message(t, a)
	assert.Equal(t, "Username is required", m.Text)
	assert.Equal(t, view.KindError, m.Kind)
}

func TestHandleLogin_UnknownUser(t *testing.T) {
	a := newApp(t, storage.NewMemoryBackend(), nil)
	require.NoError(t, a.Initialize(context.Background()))

	require.NoError(t, a.Screen().SetValue(view.UsernameInput, "ghost"))
	require.NoError(t, a.HandleLogin(context.Background()))
	assert.Equal(t, LoggedOut, a.State())
	assert.Equal(t, "User not found", message(t, a).Text)
	assert.True(t, a.Screen().Visible(view.LoginSection))
}

func TestFullCycle(t *testing.T) {
	ctx := context.Background()
	b := storage.NewMemoryBackend()
	a := newApp(t, b, nil)
	require.NoError(t, a.Initialize(ctx))

	require.NoError(t, a.OpenRegister())
	assert.True(t, a.Screen().Visible(view.RegisterModal))
	require.NoError(t, a.HandleRegister(ctx, RegisterForm{Username: "alice", FullName: "Alice Smith"}))
	assert.Equal(t, "Registration successful!", message(t, a).Text)
	assert.False(t, a.Screen().Visible(view.RegisterModal))
	prefilled, err := a.Screen().Value(view.UsernameInput)
	require.NoError(t, err)
	assert.Equal(t, "alice", prefilled)

	require.NoError(t, a.HandleLogin(ctx))
	require.Equal(t, LoggedIn, a.State())
	assert.True(t, a.Screen().Visible(view.MainContent))
	assert.False(t, a.Screen().Visible(view.LoginSection))
	welcome, err := a.Screen().Element(view.WelcomeMessage)
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Alice Smith!", welcome.Text)
	u, ok := a.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)

	require.NoError(t, a.HandleCreateTask(ctx, TaskForm{Title: "Buy milk", Priority: dom.PriorityHigh, Due: "2999-01-01"}))
	assert.Equal(t, view.KindSuccess, message(t, a).Kind)
	require.Len(t, a.View().Tasks(), 1)
	created := a.View().Tasks()[0]
	assert.Equal(t, "Buy milk", created.Title)
	require.NotNil(t, created.DueAt)
	assert.Equal(t, time.Date(2999, 1, 1, 23, 59, 59, 0, time.UTC), created.DueAt.UTC())

	require.NoError(t, a.HandleToggleTask(ctx, created.ID))
	assert.Equal(t, "Task completed", message(t, a).Text)
	assert.True(t, a.View().Tasks()[0].Completed)

	require.NoError(t, a.HandleLogout(ctx))
	assert.Equal(t, LoggedOut, a.State())
	assert.True(t, a.Screen().Visible(view.LoginSection))
	assert.Empty(t, a.View().Tasks())
	_, ok = a.CurrentUser()
	assert.False(t, ok)

	// A fresh application over the same storage sees the same data.
	b2 := newApp(t, b, nil)
	require.NoError(t, b2.Initialize(ctx))
	login(t, b2, "ALICE")
	require.Len(t, b2.View().Tasks(), 1)
	assert.True(t, b2.View().Tasks()[0].Completed)

	require.NoError(t, b2.HandleDeleteTask(ctx, created.ID))
	assert.Empty(t, b2.View().Tasks())
}

func TestHandleCreateTask_Errors(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, storage.NewMemoryBackend(), nil)
	require.NoError(t, a.Initialize(ctx))

	require.NoError(t, a.HandleCreateTask(ctx, TaskForm{Title: "x"}))
	assert.Equal(t, "Please log in first", message(t, a).Text)

	login(t, a, "demo")
	require.NoError(t, a.HandleCreateTask(ctx, TaskForm{Title: "x", Due: "tomorrow-ish"}))
	assert.Equal(t, view.KindError, message(t, a).Kind)

	require.NoError(t, a.HandleCreateTask(ctx, TaskForm{Title: "x", Due: "2001-01-01"}))
	assert.Equal(t, "Due date is in the past", message(t, a).Text)
	assert.Empty(t, a.View().Tasks())

	require.NoError(t, a.HandleToggleTask(ctx, 99))
	assert.Equal(t, "Task not found", message(t, a).Text)
}

func TestHandleShowOverdue(t *testing.T) {
	ctx := context.Background()
	a := newApp(t, storage.NewMemoryBackend(), nil)
	require.NoError(t, a.Initialize(ctx))
	login(t, a, "demo")

	require.NoError(t, a.HandleShowOverdue(ctx))
	m := message(t, a)
	assert.Equal(t, "No overdue tasks", m.Text)
	assert.Equal(t, view.KindInfo, m.Kind)

	require.NoError(t, a.HandleRefresh(ctx))
	assert.Equal(t, "Tasks refreshed", message(t, a).Text)
}

func TestHandleLogout_WhenLoggedOut(t *testing.T) {
	a := newApp(t, storage.NewMemoryBackend(), nil)
	require.NoError(t, a.Initialize(context.Background()))

	require.NoError(t, a.HandleLogout(context.Background()))
	assert.Equal(t, LoggedOut, a.State())
	assert.Equal(t, "Not logged in", message(t, a).Text)
}

func TestTransition(t *testing.T) {
	next, err := transition(LoggedOut, LoggedOut, LoggedIn)
	require.NoError(t, err)
	assert.Equal(t, LoggedIn, next)

	next, err = transition(LoggedIn, LoggedOut, LoggedIn)
	assert.Error(t, err)
	assert.Equal(t, LoggedIn, next)

	_, err = transition(LoggedOut, LoggedOut, LoggedOut)
	assert.Error(t, err)

	assert.Equal(t, "LOGGED_IN", LoggedIn.String())
	assert.Equal(t, "State(7)", State(7).String())
}
