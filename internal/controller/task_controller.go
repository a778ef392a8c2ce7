package controller

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"taskapp/internal/cache"
	dom "taskapp/internal/domain"
	"taskapp/internal/events"
	"taskapp/internal/repo"
)

// Task status filters.
const (
	StatusAll       = "all"
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type CreateTaskInput struct {
	Title       string     `json:"title" validate:"required,max=120"`
	Description string     `json:"description" validate:"max=1000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueAt       *time.Time `json:"dueAt"`
}

// UpdateTaskInput is a partial update; nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string    `json:"title" validate:"omitempty,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueAt       *time.Time `json:"dueAt"`
	ClearDueAt  bool       `json:"clearDueAt"`
	Completed   *bool      `json:"completed"`
}

type TaskFilter struct {
	Status   string `json:"status" validate:"omitempty,oneof=all pending completed"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type TaskStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// TaskController runs task CRUD scoped to the current user.
// It is not safe for concurrent use; build one per session.
type TaskController struct {
	tasks  repo.TaskRepo
	users  repo.UserRepo
	cache  *cache.TaskCache
	events events.Publisher
	now    func() time.Time

	userID int64
}

// NewTaskController creates a TaskController. If c is nil, caching is disabled;
// if p is nil, no events are published. Controllers sharing c also share its
// collapsing of concurrent cache misses.
func NewTaskController(tasks repo.TaskRepo, users repo.UserRepo, c *cache.TaskCache, p events.Publisher) *TaskController {
	if p == nil {
		p = events.Nop{}
	}
	return &TaskController{tasks: tasks, users: users, cache: c, events: p, now: time.Now}
}

// SetCurrentUser binds subsequent operations to userID. Zero unbinds.
func (c *TaskController) SetCurrentUser(userID int64) {
	c.userID = userID
}

func (c *TaskController) CurrentUserID() int64 { return c.userID }

func (c *TaskController) noUser() (Result, bool) {
	if c.userID == 0 {
		return fail(CodeUnauthenticated, "No user is logged in"), true
	}
	return Result{}, false
}

func (c *TaskController) CreateTask(ctx context.Context, in CreateTaskInput) (Result, error) {
	if r, stop := c.noUser(); stop {
		return r, nil
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Priority = strings.ToLower(strings.TrimSpace(in.Priority))
	if err := validate.Struct(in); err != nil {
		return fail(CodeInvalid, validationMessage(err)), nil
	}
	if in.DueAt != nil && in.DueAt.Before(c.now()) {
		return fail(CodeInvalid, "Due date is in the past"), nil
	}
	if in.Priority == "" {
		in.Priority = dom.PriorityMedium
	}

	if _, err := c.users.FindByID(ctx, c.userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(CodeNotFound, "User not found"), nil
		}
		return Result{}, err
	}

	t, err := c.tasks.Create(ctx, dom.Task{
		UserID:      c.userID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueAt:       utcPtr(in.DueAt),
	})
	if err != nil {
		return Result{}, err
	}
	c.afterWrite(ctx, events.TaskCreated, t.ID)
	return ok(t, "Task created"), nil
}

// GetTasks lists the current user's tasks, newest first.
func (c *TaskController) GetTasks(ctx context.Context, f TaskFilter) (Result, error) {
	if r, stop := c.noUser(); stop {
		return r, nil
	}
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	f.Priority = strings.ToLower(strings.TrimSpace(f.Priority))
	if err := validate.Struct(f); err != nil {
		return fail(CodeInvalid, validationMessage(err)), nil
	}

	list, err := c.cached(ctx, "list", c.cacheGetList, c.cacheSetList, c.listAll)
	if err != nil {
		return Result{}, err
	}
	out := make([]dom.Task, 0, len(list))
	for _, t := range list {
		if f.Status == StatusPending && t.Completed {
			continue
		}
		if f.Status == StatusCompleted && !t.Completed {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		out = append(out, t)
	}
	return okList(out, ""), nil
}

func (c *TaskController) GetTask(ctx context.Context, id int64) (Result, error) {
	if r, stop := c.noUser(); stop {
		return r, nil
	}
	t, r, err := c.owned(ctx, id)
	if err != nil || !r.Success {
		return r, err
	}
	return ok(t, ""), nil
}

func (c *TaskController) UpdateTask(ctx context.Context, id int64, in UpdateTaskInput) (Result, error) {
	if r, stop := c.noUser(); stop {
		return r, nil
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return fail(CodeInvalid, "title is required"), nil
		}
		in.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		in.Description = &desc
	}
	if in.Priority != nil {
		p := strings.ToLower(strings.TrimSpace(*in.Priority))
		in.Priority = &p
	}
	if err := validate.Struct(in); err != nil {
		return fail(CodeInvalid, validationMessage(err)), nil
	}

	t, r, err := c.owned(ctx, id)
	if err != nil || !r.Success {
		return r, err
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil && *in.Priority != "" {
		t.Priority = *in.Priority
	}
	if in.ClearDueAt {
		t.DueAt = nil
	} else if in.DueAt != nil {
		if in.DueAt.Before(c.now()) {
			return fail(CodeInvalid, "Due date is in the past"), nil
		}
		t.DueAt = utcPtr(in.DueAt)
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	return c.save(ctx, t, "Task updated")
}

// ToggleTaskStatus flips the completion flag.
func (c *TaskController) ToggleTaskStatus(ctx context.Context, id int64) (Result, error) {
	if r, stop := c.noUser(); stop {
		return r, nil
	}
	t, r, err := c.owned(ctx, id)
	if err != nil || !r.Success {
		return r, err
	}
	t.Completed = !t.Completed
	msg := "Task marked as pending"
	if t.Completed {
		msg = "Task completed"
	}
	return c.save(ctx, t, msg)
}

func (c *TaskController) DeleteTask(ctx context.Context, id int64) (Result, error) {
	if r, stop := c.noUser(); stop {
		return r, nil
	}
	t, r, err := c.owned(ctx, id)
	if err != nil || !r.Success {
		return r, err
	}
	if err := c.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(CodeNotFound, "Task not found"), nil
		}
		return Result{}, err
	}
	c.afterWrite(ctx, events.TaskDeleted, id)
	return ok(t, "Task deleted"), nil
}

// SearchTasks matches q case-insensitively against title and description.
func (c *TaskController) SearchTasks(ctx context.Context, q string) (Result, error) {
	if r, stop := c.noUser(); stop {
		return r, nil
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return c.GetTasks(ctx, TaskFilter{})
	}
	load := func(ctx context.Context) ([]dom.Task, error) {
		all, err := c.listAll(ctx)
		if err != nil {
			return nil, err
		}
		needle := strings.ToLower(q)
		var out []dom.Task
		for _, t := range all {
			if strings.Contains(strings.ToLower(t.Title), needle) ||
				strings.Contains(strings.ToLower(t.Description), needle) {
				out = append(out, t)
			}
		}
		return out, nil
	}
	get := func(ctx context.Context) ([]dom.Task, error) { return c.cache.GetSearch(ctx, c.userID, q) }
	set := func(ctx context.Context, list []dom.Task) error { return c.cache.SetSearch(ctx, c.userID, q, list) }

	list, err := c.cached(ctx, "search:"+strings.ToLower(q), get, set, load)
	if err != nil {
		return Result{}, err
	}
	return okList(list, ""), nil
}

// GetOverdueTasks returns the current user's unfinished tasks whose due date has passed,
// earliest due first.
func (c *TaskController) GetOverdueTasks(ctx context.Context) (Result, error) {
	if r, stop := c.noUser(); stop {
		return r, nil
	}
	// The cached list is only valid until the next pending task falls due.
	var (
		hasNext bool
		until   time.Duration
	)
	load := func(ctx context.Context) ([]dom.Task, error) {
		now := c.now()
		list, next, err := c.listOverdue(ctx, now)
		if next != nil {
			hasNext, until = true, next.Sub(now)
		}
		return list, err
	}
	get := func(ctx context.Context) ([]dom.Task, error) { return c.cache.GetOverdue(ctx, c.userID) }
	set := func(ctx context.Context, list []dom.Task) error {
		if hasNext && until <= 0 {
			return nil
		}
		return c.cache.SetOverdue(ctx, c.userID, list, until)
	}

	list, err := c.cached(ctx, "overdue", get, set, load)
	if err != nil {
		return Result{}, err
	}
	msg := "No overdue tasks"
	if len(list) > 0 {
		msg = strconv.Itoa(len(list)) + " overdue task(s)"
	}
	return okList(list, msg), nil
}

func (c *TaskController) GetTaskStats(ctx context.Context) (Result, error) {
	if r, stop := c.noUser(); stop {
		return r, nil
	}
	list, err := c.tasks.FindByUserID(ctx, c.userID)
	if err != nil {
		return Result{}, err
	}
	now := c.now()
	var s TaskStats
	for _, t := range list {
		s.Total++
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	return ok(s, ""), nil
}

// owned loads id and hides tasks of other users behind "not found".
func (c *TaskController) owned(ctx context.Context, id int64) (dom.Task, Result, error) {
	t, err := c.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.Task{}, fail(CodeNotFound, "Task not found"), nil
		}
		return dom.Task{}, Result{}, err
	}
	if t.UserID != c.userID {
		return dom.Task{}, fail(CodeNotFound, "Task not found"), nil
	}
	return t, Result{Success: true}, nil
}

func (c *TaskController) save(ctx context.Context, t dom.Task, msg string) (Result, error) {
	t, err := c.tasks.Update(ctx, t)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fail(CodeNotFound, "Task not found"), nil
		}
		return Result{}, err
	}
	c.afterWrite(ctx, events.TaskUpdated, t.ID)
	return ok(t, msg), nil
}

func (c *TaskController) listAll(ctx context.Context) ([]dom.Task, error) {
	list, err := c.tasks.FindByUserID(ctx, c.userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

// listOverdue returns the tasks overdue at now, earliest due first, and the
// earliest due date still ahead among pending tasks, if any.
func (c *TaskController) listOverdue(ctx context.Context, now time.Time) ([]dom.Task, *time.Time, error) {
	list, err := c.tasks.FindByUserID(ctx, c.userID)
	if err != nil {
		return nil, nil, err
	}
	var (
		out  []dom.Task
		next *time.Time
	)
	for _, t := range list {
		switch {
		case t.IsOverdue(now):
			out = append(out, t)
		case !t.Completed && t.DueAt != nil && (next == nil || t.DueAt.Before(*next)):
			next = t.DueAt
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueAt.Before(*out[j].DueAt) })
	return out, next, nil
}

func (c *TaskController) cacheGetList(ctx context.Context) ([]dom.Task, error) {
	return c.cache.GetList(ctx, c.userID)
}

func (c *TaskController) cacheSetList(ctx context.Context, list []dom.Task) error {
	return c.cache.SetList(ctx, c.userID, list)
}

// cached reads through the cache when one is configured, collapsing
// concurrent misses for the same user and kind.
func (c *TaskController) cached(
	ctx context.Context,
	kind string,
	get func(context.Context) ([]dom.Task, error),
	set func(context.Context, []dom.Task) error,
	load func(context.Context) ([]dom.Task, error),
) ([]dom.Task, error) {
	if c.cache == nil {
		return load(ctx)
	}
	key := kind + ":" + strconv.FormatInt(c.userID, 10)
	return c.cache.Do(key, func() ([]dom.Task, error) {
		if list, err := get(ctx); err == nil && list != nil {
			return list, nil
		}
		list, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := set(ctx, list); err != nil {
			log.Printf("task cache %s: %v", key, err)
		}
		return list, nil
	})
}

func (c *TaskController) afterWrite(ctx context.Context, typ string, taskID int64) {
	if c.cache != nil {
		if err := c.cache.InvalidateAll(ctx, c.userID); err != nil {
			log.Printf("task cache invalidate user %d: %v", c.userID, err)
		}
	}
	e := events.Event{Type: typ, UserID: c.userID, TaskID: taskID, At: c.now().UTC()}
	if err := c.events.Publish(ctx, e); err != nil {
		log.Printf("publish %s task %d: %v", typ, taskID, err)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
