package handlers

import (
	"net/http"

	"taskapp/internal/auth"
	"taskapp/internal/controller"
	"taskapp/internal/dto"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	deps Deps
}

func NewTaskHandler(deps Deps) *TaskHandler {
	return &TaskHandler{deps: deps}
}

// tasksFor returns a TaskController bound to the session's user.
func (h *TaskHandler) tasksFor(c *gin.Context) *controller.TaskController {
	tc := controller.NewTaskController(h.deps.Tasks, h.deps.Users, h.deps.Cache, h.deps.Events)
	tc.SetCurrentUser(auth.UserIDFromContext(c))
	return tc
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  controller.Result
// @Failure      400   {object}  controller.Result
// @Failure      401   {object}  controller.Result
// @Failure      500   {object}  controller.Result
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.tasksFor(c).CreateTask(c.Request.Context(), req.Input())
	respond(c, res, err, http.StatusCreated)
}

// List godoc
// @Summary      List the current user's tasks, newest first
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        status    query     string  false  "all, pending or completed"
// @Param        priority  query     string  false  "low, medium or high"
// @Success      200  {object}  controller.Result
// @Failure      400  {object}  controller.Result
// @Failure      500  {object}  controller.Result
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	f := controller.TaskFilter{Status: c.Query("status"), Priority: c.Query("priority")}
	res, err := h.tasksFor(c).GetTasks(c.Request.Context(), f)
	respond(c, res, err, http.StatusOK)
}

// GetByID godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  controller.Result
// @Failure      400  {object}  controller.Result
// @Failure      404  {object}  controller.Result
// @Failure      500  {object}  controller.Result
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.tasksFor(c).GetTask(c.Request.Context(), id)
	respond(c, res, err, http.StatusOK)
}

// Update godoc
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id    path      int  true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  controller.Result
// @Failure      400   {object}  controller.Result
// @Failure      404   {object}  controller.Result
// @Failure      500   {object}  controller.Result
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.tasksFor(c).UpdateTask(c.Request.Context(), id, req.Input())
	respond(c, res, err, http.StatusOK)
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  controller.Result
// @Failure      400  {object}  controller.Result
// @Failure      404  {object}  controller.Result
// @Failure      500  {object}  controller.Result
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.tasksFor(c).DeleteTask(c.Request.Context(), id)
	respond(c, res, err, http.StatusOK)
}

// Toggle godoc
// @Summary      Flip a task between pending and completed
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  controller.Result
// @Failure      400  {object}  controller.Result
// @Failure      404  {object}  controller.Result
// @Failure      500  {object}  controller.Result
// @Router       /tasks/{id}/toggle [post]
func (h *TaskHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.tasksFor(c).ToggleTaskStatus(c.Request.Context(), id)
	respond(c, res, err, http.StatusOK)
}

// Search godoc
// @Summary      Search tasks by query
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Param        q    query     string  false  "Search query (title/description)"
// @Success      200  {object}  controller.Result
// @Failure      500  {object}  controller.Result
// @Router       /tasks/search [get]
func (h *TaskHandler) Search(c *gin.Context) {
	res, err := h.tasksFor(c).SearchTasks(c.Request.Context(), c.Query("q"))
	respond(c, res, err, http.StatusOK)
}

// Overdue godoc
// @Summary      List overdue tasks, earliest due first
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  controller.Result
// @Failure      500  {object}  controller.Result
// @Router       /tasks/overdue [get]
func (h *TaskHandler) Overdue(c *gin.Context) {
	res, err := h.tasksFor(c).GetOverdueTasks(c.Request.Context())
	respond(c, res, err, http.StatusOK)
}

// Stats godoc
// @Summary      Task counters for the current user
// @Tags         tasks
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  controller.Result
// @Failure      500  {object}  controller.Result
// @Router       /tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	res, err := h.tasksFor(c).GetTaskStats(c.Request.Context())
	respond(c, res, err, http.StatusOK)
}
