package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"taskapp/internal/auth"
	"taskapp/internal/controller"
	"taskapp/internal/dto"
	"taskapp/internal/repo"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles login, register, logout and the current user.
type AuthHandler struct {
	sessions   auth.Sessions
	users      repo.UserRepo
	sessionTTL time.Duration
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(sessions auth.Sessions, users repo.UserRepo, sessionTTL time.Duration) *AuthHandler {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthHandler{sessions: sessions, users: users, sessionTTL: sessionTTL}
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Username"
// @Success      200   {object}  controller.Result
// @Failure      400   {object}  controller.Result
// @Failure      404   {object}  controller.Result
// @Failure      429   {object}  controller.Result
// @Failure      500   {object}  controller.Result
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	uc := controller.NewUserController(h.users)
	res, err := uc.Login(c.Request.Context(), req.Username)
	if err != nil || !res.Success {
		respond(c, res, err, http.StatusOK)
		return
	}
	user, _ := uc.CurrentUser()
	sessionID, err := h.sessions.Create(c.Request.Context(), user.ID)
	if err != nil {
		respond(c, res, err, http.StatusOK)
		return
	}
	c.SetCookie(auth.SessionCookieName, sessionID, int(h.sessionTTL.Seconds()), "/", "", false, true)
	log.Printf("user %d logged in", user.ID)
	c.JSON(http.StatusOK, res)
}

// Register godoc
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "New user"
// @Success      201   {object}  controller.Result
// @Failure      400   {object}  controller.Result
// @Failure      409   {object}  controller.Result
// @Failure      429   {object}  controller.Result
// @Failure      500   {object}  controller.Result
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := controller.NewUserController(h.users).Register(c.Request.Context(), req.Input())
	respond(c, res, err, http.StatusCreated)
}

// Logout godoc
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  controller.Result
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie(auth.SessionCookieName)
	if err == nil && sessionID != "" {
		if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
			log.Printf("session delete: %v", err)
		}
	}
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, controller.NewUserController(h.users).Logout())
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  controller.Result
// @Failure      401  {object}  controller.Result
// @Failure      500  {object}  controller.Result
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.users.FindByID(c.Request.Context(), auth.UserIDFromContext(c))
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, controller.Result{Success: false, Error: "User not found"})
		return
	}
	respond(c, controller.Result{Success: true, Data: u}, err, http.StatusOK)
}
