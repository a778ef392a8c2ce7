package controller

import (
	"context"
	"errors"
	"strings"

	dom "taskapp/internal/domain"
	"taskapp/internal/repo"
)

// RegisterInput is the data accepted by Register.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	FullName string `json:"fullName" validate:"max=100"`
}

// UserController handles login, logout and registration and holds the
// current session. It is not safe for concurrent use; build one per session.
type UserController struct {
	users   repo.UserRepo
	current *dom.User
}

// NewUserController returns a new UserController.
func NewUserController(users repo.UserRepo) *UserController {
	return &UserController{users: users}
}

// Login looks the user up by username and makes them current.
func (c *UserController) Login(ctx context.Context, username string) (Result, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return fail(CodeInvalid, "Username is required"), nil
	}
	u, err := c.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(CodeNotFound, "User not found"), nil
		}
		return Result{}, err
	}
	c.current = &u
	return ok(u, "Welcome, "+u.DisplayName()+"!"), nil
}

// Logout clears the current user.
func (c *UserController) Logout() Result {
	c.current = nil
	return ok(nil, "Logged out")
}

// Register validates input and creates the user. The repository enforces
// username uniqueness, so concurrent registers of one name yield one account.
func (c *UserController) Register(ctx context.Context, in RegisterInput) (Result, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validate.Struct(in); err != nil {
		return fail(CodeInvalid, validationMessage(err)), nil
	}

	u, err := c.users.Create(ctx, dom.User{
		Username: in.Username,
		Email:    in.Email,
		FullName: in.FullName,
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return fail(CodeConflict, "Username already taken"), nil
		}
		return Result{}, err
	}
	return ok(u, "Registration successful"), nil
}

// CurrentUser returns the logged-in user, if any.
func (c *UserController) CurrentUser() (dom.User, bool) {
	if c.current == nil {
		return dom.User{}, false
	}
	return *c.current, true
}

func (c *UserController) IsLoggedIn() bool { return c.current != nil }
