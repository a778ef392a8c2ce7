package handlers

import (
	"log"
	"net/http"
	"strconv"

	"taskapp/internal/cache"
	"taskapp/internal/controller"
	"taskapp/internal/events"
	"taskapp/internal/repo"

	"github.com/gin-gonic/gin"
)

// Deps are shared by every request. Controllers themselves are built per request.
type Deps struct {
	Users  repo.UserRepo
	Tasks  repo.TaskRepo
	Cache  *cache.TaskCache
	Events events.Publisher
}

var internalError = controller.Result{Success: false, Error: "internal server error"}

// statusFor maps a Result to an HTTP status. okStatus is used on success.
func statusFor(res controller.Result, okStatus int) int {
	if res.Success {
		return okStatus
	}
	switch res.Code {
	case controller.CodeNotFound:
		return http.StatusNotFound
	case controller.CodeConflict:
		return http.StatusConflict
	case controller.CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// respond writes res, or a generic 500 when err is set.
func respond(c *gin.Context, res controller.Result, err error, okStatus int) {
	if err != nil {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, internalError)
		return
	}
	c.JSON(statusFor(res, okStatus), res)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, controller.Result{Success: false, Error: msg})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
