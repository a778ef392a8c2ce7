package view

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskapp/internal/controller"
	dom "taskapp/internal/domain"
)

// MessageKind selects how a status message is styled.
type MessageKind string

const (
	KindSuccess MessageKind = "success"
	KindError   MessageKind = "error"
	KindInfo    MessageKind = "info"
	KindWarning MessageKind = "warning"
)

// DefaultMessageTTL is how long a status message stays visible.
const DefaultMessageTTL = 3 * time.Second

// Message is a transient status line.
type Message struct {
	Text      string
	Kind      MessageKind
	ExpiresAt time.Time
}

// TaskView renders the current user's tasks and status messages onto a Screen.
type TaskView struct {
	tasks  *controller.TaskController
	users  *controller.UserController
	screen *Screen
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	msg   *Message
	shown []dom.Task
}

// NewTaskView returns a view over both controllers. A ttl of zero uses DefaultMessageTTL.
func NewTaskView(tasks *controller.TaskController, users *controller.UserController, screen *Screen, ttl time.Duration) *TaskView {
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	return &TaskView{tasks: tasks, users: users, screen: screen, ttl: ttl, now: time.Now}
}

func (v *TaskView) Screen() *Screen { return v.screen }

// Refresh re-renders the full task list, the stats line and the user info.
func (v *TaskView) Refresh(ctx context.Context) error {
	u, ok := v.users.CurrentUser()
	if !ok {
		v.mu.Lock()
		v.shown = nil
		v.mu.Unlock()
		if err := v.screen.SetText(UserInfo, ""); err != nil {
			return err
		}
		if err := v.screen.SetText(TaskStats, ""); err != nil {
			return err
		}
		return v.screen.SetLines(TaskList, nil)
	}
	if err := v.screen.SetText(UserInfo, "Logged in as "+u.Username); err != nil {
		return err
	}

	res, err := v.tasks.GetTasks(ctx, controller.TaskFilter{})
	if err != nil {
		return err
	}
	if !res.Success {
		v.ShowMessage(res.Error, KindError)
		return nil
	}
	list, _ := res.Data.([]dom.Task)
	if err := v.renderList(list, "No tasks yet. Add one!"); err != nil {
		return err
	}

	stats, err := v.tasks.GetTaskStats(ctx)
	if err != nil {
		return err
	}
	if s, ok := stats.Data.(controller.TaskStats); ok {
		return v.screen.SetText(TaskStats, FormatStats(s))
	}
	return nil
}

// ShowOverdue renders only the overdue tasks and reports how many there are.
func (v *TaskView) ShowOverdue(ctx context.Context) error {
	res, err := v.tasks.GetOverdueTasks(ctx)
	if err != nil {
		return err
	}
	if !res.Success {
		v.ShowMessage(res.Error, KindError)
		return nil
	}
	list, _ := res.Data.([]dom.Task)
	if err := v.renderList(list, "No overdue tasks."); err != nil {
		return err
	}
	kind := KindInfo
	if res.Count != nil && *res.Count > 0 {
		kind = KindWarning
	}
	v.ShowMessage(res.Message, kind)
	return nil
}

func (v *TaskView) renderList(list []dom.Task, empty string) error {
	v.mu.Lock()
	v.shown = append([]dom.Task(nil), list...)
	v.mu.Unlock()
	if len(list) == 0 {
		return v.screen.SetLines(TaskList, []string{empty})
	}
	now := v.now()
	lines := make([]string, len(list))
	for i, t := range list {
		lines[i] = FormatTask(t, now)
	}
	return v.screen.SetLines(TaskList, lines)
}

// Tasks returns the tasks currently rendered in the task list, in display order.
func (v *TaskView) Tasks() []dom.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]dom.Task(nil), v.shown...)
}

// ShowMessage sets the transient status message, replacing any previous one.
func (v *TaskView) ShowMessage(text string, kind MessageKind) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if text == "" {
		v.msg = nil
		return
	}
	v.msg = &Message{Text: text, Kind: kind, ExpiresAt: v.now().Add(v.ttl)}
}

// Message returns the current status message unless it has expired.
func (v *TaskView) Message() (Message, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.msg == nil {
		return Message{}, false
	}
	if !v.now().Before(v.msg.ExpiresAt) {
		v.msg = nil
		return Message{}, false
	}
	return *v.msg, true
}

// MessageTTL is how long ShowMessage keeps a message visible.
func (v *TaskView) MessageTTL() time.Duration { return v.ttl }

// FormatTask renders one task as a single line.
func FormatTask(t dom.Task, now time.Time) string {
	var b strings.Builder
	if t.Completed {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	fmt.Fprintf(&b, "#%d %s", t.ID, t.Title)
	if t.Priority != "" && t.Priority != dom.PriorityMedium {
		fmt.Fprintf(&b, " (%s)", t.Priority)
	}
	if t.DueAt != nil {
		fmt.Fprintf(&b, " due %s", t.DueAt.In(now.Location()).Format("2006-01-02 15:04"))
	}
	if t.IsOverdue(now) {
		b.WriteString(" OVERDUE")
	}
	return b.String()
}

// FormatStats renders the stats line.
func FormatStats(s controller.TaskStats) string {
	return fmt.Sprintf("%d tasks, %d done, %d pending, %d overdue", s.Total, s.Completed, s.Pending, s.Overdue)
}
