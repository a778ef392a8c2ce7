// Package ui is the interactive front end: an explicitly constructed
// application context, its command handlers, and the terminal program
// that drives them.
package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"taskapp/internal/cache"
	"taskapp/internal/controller"
	dom "taskapp/internal/domain"
	"taskapp/internal/dto"
	"taskapp/internal/events"
	"taskapp/internal/repo"
	"taskapp/internal/view"
)

// Demo account seeded into an empty user collection.
const (
	demoUsername = "demo"
	demoEmail    = "demo@example.com"
	demoFullName = "Demo User"
)

// Deps are the collaborators the application is built from.
type Deps struct {
	Users  repo.UserRepo
	Tasks  repo.TaskRepo
	Cache  *cache.TaskCache // optional
	Events events.Publisher // optional
	Screen *view.Screen     // optional, DefaultScreen when nil
	// MessageTTL is how long status messages stay up. Zero uses view.DefaultMessageTTL.
	MessageTTL time.Duration
	// Location interprets due dates typed without a zone. Nil means time.Local.
	Location *time.Location
}

// RegisterForm is the data entered in the register modal.
type RegisterForm struct {
	Username string
	Email    string
	FullName string
}

// TaskForm is the data entered to create a task. Due is parsed with dto.ParseDueAt.
type TaskForm struct {
	Title       string
	Description string
	Priority    string
	Due         string
}

// App wires repositories, controllers and the view, and owns the screen state.
// Handlers return an error only when storage fails or a required element is
// missing; everything else is reported through the view's status message.
type App struct {
	userRepo repo.UserRepo
	users    *controller.UserController
	tasks    *controller.TaskController
	view     *view.TaskView
	screen   *view.Screen
	loc      *time.Location

	state       State
	currentUser *dom.User
}

// New builds the application context from d.
func New(d Deps) *App {
	screen := d.Screen
	if screen == nil {
		screen = view.DefaultScreen()
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	users := controller.NewUserController(d.Users)
	tasks := controller.NewTaskController(d.Tasks, d.Users, d.Cache, d.Events)
	return &App{
		userRepo: d.Users,
		users:    users,
		tasks:    tasks,
		view:     view.NewTaskView(tasks, users, screen, d.MessageTTL),
		screen:   screen,
		loc:      loc,
		state:    LoggedOut,
	}
}

func (a *App) State() State { return a.state }

func (a *App) View() *view.TaskView { return a.view }

func (a *App) Screen() *view.Screen { return a.screen }

// CurrentUser returns the signed-in user.
func (a *App) CurrentUser() (dom.User, bool) {
	if a.currentUser == nil {
		return dom.User{}, false
	}
	return *a.currentUser, true
}

// Initialize checks that every required element exists, seeds the demo
// user into an empty store and shows the login screen.
func (a *App) Initialize(ctx context.Context) error {
	log.Printf("initializing task app")
	if err := a.screen.Check(view.RequiredElements...); err != nil {
		return fmt.Errorf("bind elements: %w", err)
	}
	if err := a.createDemoUserIfNeeded(ctx); err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	if err := a.showLoginSection(); err != nil {
		return err
	}
	log.Printf("task app initialized")
	return nil
}

func (a *App) createDemoUserIfNeeded(ctx context.Context) error {
	all, err := a.userRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(all) > 0 {
		return nil
	}
	_, err = a.userRepo.Create(ctx, dom.User{
		Username: demoUsername,
		Email:    demoEmail,
		FullName: demoFullName,
	})
	if err == nil {
		log.Printf("created demo user %q", demoUsername)
	}
	return err
}

// HandleLogin logs in with the username currently typed in the username input.
func (a *App) HandleLogin(ctx context.Context) error {
	raw, err := a.screen.Value(view.UsernameInput)
	if err != nil {
		return err
	}
	username := strings.TrimSpace(raw)
	if username == "" {
		a.view.ShowMessage("Username is required", view.KindError)
		return nil
	}
	if a.state == LoggedIn {
		a.view.ShowMessage("Already logged in", view.KindInfo)
		return nil
	}

	res, err := a.users.Login(ctx, username)
	if err != nil {
		return err
	}
	if !res.Success {
		a.view.ShowMessage(res.Error, view.KindError)
		return nil
	}
	u := res.Data.(dom.User)
	next, err := transition(a.state, LoggedOut, LoggedIn)
	if err != nil {
		return err
	}
	a.state = next
	a.currentUser = &u
	a.tasks.SetCurrentUser(u.ID)

	if err := a.showMainContent(); err != nil {
		return err
	}
	if err := a.view.Refresh(ctx); err != nil {
		return err
	}
	a.view.ShowMessage(res.Message, view.KindSuccess)
	return nil
}

// HandleLogout ends the session and returns to the login screen.
func (a *App) HandleLogout(ctx context.Context) error {
	next, err := transition(a.state, LoggedIn, LoggedOut)
	if err != nil {
		a.view.ShowMessage("Not logged in", view.KindInfo)
		return nil
	}
	a.state = next
	res := a.users.Logout()
	a.currentUser = nil
	a.tasks.SetCurrentUser(0)

	if err := a.showLoginSection(); err != nil {
		return err
	}
	if err := a.view.Refresh(ctx); err != nil {
		return err
	}
	a.view.ShowMessage(res.Message, view.KindInfo)
	return nil
}

func (a *App) OpenRegister() error {
	if err := a.screen.Show(view.RegisterForm); err != nil {
		return err
	}
	return a.screen.Show(view.RegisterModal)
}

func (a *App) CloseRegister() error {
	if err := a.screen.Hide(view.RegisterForm); err != nil {
		return err
	}
	return a.screen.Hide(view.RegisterModal)
}

// HandleRegister creates an account. On success the modal closes and the
// username is prefilled in the login input.
func (a *App) HandleRegister(ctx context.Context, f RegisterForm) error {
	res, err := a.users.Register(ctx, controller.RegisterInput{
		Username: f.Username,
		Email:    f.Email,
		FullName: f.FullName,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		a.view.ShowMessage(res.Error, view.KindError)
		return nil
	}
	u := res.Data.(dom.User)
	if err := a.CloseRegister(); err != nil {
		return err
	}
	if err := a.screen.SetValue(view.UsernameInput, u.Username); err != nil {
		return err
	}
	a.view.ShowMessage("Registration successful!", view.KindSuccess)
	return nil
}

func (a *App) HandleCreateTask(ctx context.Context, f TaskForm) error {
	if !a.requireLogin() {
		return nil
	}
	due, err := dto.ParseDueAt(f.Due, a.loc)
	if err != nil {
		a.view.ShowMessage("Invalid due date, use YYYY-MM-DD or YYYY-MM-DD HH:MM", view.KindError)
		return nil
	}
	res, err := a.tasks.CreateTask(ctx, controller.CreateTaskInput{
		Title:       f.Title,
		Description: f.Description,
		Priority:    f.Priority,
		DueAt:       due,
	})
	return a.afterWrite(ctx, res, err)
}

func (a *App) HandleToggleTask(ctx context.Context, id int64) error {
	if !a.requireLogin() {
		return nil
	}
	res, err := a.tasks.ToggleTaskStatus(ctx, id)
	return a.afterWrite(ctx, res, err)
}

func (a *App) HandleDeleteTask(ctx context.Context, id int64) error {
	if !a.requireLogin() {
		return nil
	}
	res, err := a.tasks.DeleteTask(ctx, id)
	return a.afterWrite(ctx, res, err)
}

// HandleShowOverdue replaces the list with the overdue tasks.
func (a *App) HandleShowOverdue(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	return a.view.ShowOverdue(ctx)
}

// HandleRefresh re-renders the full task list.
func (a *App) HandleRefresh(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	if err := a.view.Refresh(ctx); err != nil {
		return err
	}
	a.view.ShowMessage("Tasks refreshed", view.KindInfo)
	return nil
}

func (a *App) requireLogin() bool {
	if a.state != LoggedIn {
		a.view.ShowMessage("Please log in first", view.KindError)
		return false
	}
	return true
}

func (a *App) afterWrite(ctx context.Context, res controller.Result, err error) error {
	if err != nil {
		return err
	}
	if !res.Success {
		a.view.ShowMessage(res.Error, view.KindError)
		return nil
	}
	if err := a.view.Refresh(ctx); err != nil {
		return err
	}
	a.view.ShowMessage(res.Message, view.KindSuccess)
	return nil
}

func (a *App) showLoginSection() error {
	for _, id := range []string{view.LoginSection, view.LoginBtn} {
		if err := a.screen.Show(id); err != nil {
			return err
		}
	}
	for _, id := range []string{view.MainContent, view.UserInfo, view.LogoutBtn} {
		if err := a.screen.Hide(id); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) showMainContent() error {
	for _, id := range []string{view.MainContent, view.UserInfo, view.LogoutBtn, view.ShowOverdueBtn, view.RefreshTasks} {
		if err := a.screen.Show(id); err != nil {
			return err
		}
	}
	for _, id := range []string{view.LoginSection, view.LoginBtn} {
		if err := a.screen.Hide(id); err != nil {
			return err
		}
	}
	if a.currentUser != nil {
		if err := a.screen.SetText(view.WelcomeMessage, "Welcome, "+a.currentUser.DisplayName()+"!"); err != nil {
			return err
		}
		return a.screen.Show(view.WelcomeMessage)
	}
	return nil
}
