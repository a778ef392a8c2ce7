package ui

import (
	"context"
	"log"
	"strings"
	"time"

	"taskapp/internal/view"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const genericFailure = "Something went wrong. Check the log for details."

type mode int

const (
	modeLogin mode = iota
	modeRegister
	modeMain
	modeAddTask
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Strikethrough(true)
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)

	messageStyles = map[view.MessageKind]lipgloss.Style{
		view.KindSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		view.KindError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		view.KindInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		view.KindWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

// expireMsg asks the model to re-render once a status message may have expired.
type expireMsg struct{}

// Model is the bubbletea model over an initialized App.
type Model struct {
	ctx    context.Context
	app    *App
	mode   mode
	cursor int

	username textinput.Model
	register []textinput.Model // username, email, full name
	task     []textinput.Model // title, description, priority, due
	focus    int
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = "> "
	return ti
}

// NewModel returns the terminal model for app, which must already be initialized.
func NewModel(ctx context.Context, app *App) Model {
	m := Model{
		ctx:      ctx,
		app:      app,
		username: newInput("username (try demo)", 50),
		register: []textinput.Model{
			newInput("username", 50),
			newInput("email (optional)", 254),
			newInput("full name (optional)", 100),
		},
		task: []textinput.Model{
			newInput("title", 120),
			newInput("description (optional)", 1000),
			newInput("priority: low, medium or high", 6),
			newInput("due: YYYY-MM-DD or YYYY-MM-DD HH:MM (optional)", 16),
		},
	}
	m.username.Focus()
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case expireMsg:
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeLogin:
			return m.updateLogin(msg)
		case modeRegister:
			return m.updateForm(msg, m.register, submitRegister, closeRegister)
		case modeMain:
			return m.updateMain(msg)
		case modeAddTask:
			return m.updateForm(msg, m.task, submitTask, closeAddTask)
		}
	}
	return m, nil
}

// run executes a handler, turning an infrastructure error into a generic message.
func (m *Model) run(fn func() error) tea.Cmd {
	if err := fn(); err != nil {
		log.Printf("command failed: %v", err)
		m.app.View().ShowMessage(genericFailure, view.KindError)
	}
	m.syncMode()
	if n := len(m.app.View().Tasks()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	ttl := m.app.View().MessageTTL()
	return tea.Tick(ttl+50*time.Millisecond, func(time.Time) tea.Msg { return expireMsg{} })
}

// syncMode follows the screen: the register modal wins, then the login section.
func (m *Model) syncMode() {
	s := m.app.Screen()
	switch {
	case s.Visible(view.RegisterModal):
		m.mode = modeRegister
	case s.Visible(view.LoginSection):
		m.mode = modeLogin
		if v, err := s.Value(view.UsernameInput); err == nil && v != m.username.Value() {
			m.username.SetValue(v)
			m.username.CursorEnd()
		}
		m.username.Focus()
	case m.mode != modeAddTask:
		m.mode = modeMain
	}
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		cmd := m.run(func() error {
			if err := m.app.Screen().SetValue(view.UsernameInput, m.username.Value()); err != nil {
				return err
			}
			return m.app.HandleLogin(m.ctx)
		})
		if m.mode == modeMain {
			m.username.Blur()
			m.cursor = 0
		}
		return m, cmd
	case tea.KeyCtrlR:
		cmd := m.run(m.app.OpenRegister)
		m.resetForm(m.register)
		return m, cmd
	}
	var cmd tea.Cmd
	m.username, cmd = m.username.Update(msg)
	return m, cmd
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := m.app.View().Tasks()
	selected := func() (int64, bool) {
		if m.cursor < 0 || m.cursor >= len(tasks) {
			return 0, false
		}
		return tasks[m.cursor].ID, true
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case "a":
		m.mode = modeAddTask
		m.resetForm(m.task)
		return m, textinput.Blink
	case " ", "enter", "t":
		if id, ok := selected(); ok {
			return m, m.run(func() error { return m.app.HandleToggleTask(m.ctx, id) })
		}
	case "d":
		if id, ok := selected(); ok {
			return m, m.run(func() error { return m.app.HandleDeleteTask(m.ctx, id) })
		}
	case "o":
		m.cursor = 0
		return m, m.run(func() error { return m.app.HandleShowOverdue(m.ctx) })
	case "r":
		m.cursor = 0
		return m, m.run(func() error { return m.app.HandleRefresh(m.ctx) })
	case "l":
		return m, m.run(func() error { return m.app.HandleLogout(m.ctx) })
	}
	return m, nil
}

// updateForm drives a multi-field form: tab moves focus, enter submits, esc cancels.
func (m Model) updateForm(msg tea.KeyMsg, fields []textinput.Model, submit, cancel func(*Model) tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, cancel(&m)
	case tea.KeyEnter:
		return m, submit(&m)
	case tea.KeyTab, tea.KeyDown, tea.KeyShiftTab, tea.KeyUp:
		fields[m.focus].Blur()
		if msg.Type == tea.KeyTab || msg.Type == tea.KeyDown {
			m.focus = (m.focus + 1) % len(fields)
		} else {
			m.focus = (m.focus + len(fields) - 1) % len(fields)
		}
		return m, fields[m.focus].Focus()
	}
	var cmd tea.Cmd
	fields[m.focus], cmd = fields[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) resetForm(fields []textinput.Model) {
	for i := range fields {
		fields[i].Reset()
		fields[i].Blur()
	}
	m.focus = 0
	fields[0].Focus()
}

func submitRegister(m *Model) tea.Cmd {
	f := RegisterForm{
		Username: m.register[0].Value(),
		Email:    m.register[1].Value(),
		FullName: m.register[2].Value(),
	}
	return m.run(func() error { return m.app.HandleRegister(m.ctx, f) })
}

func closeRegister(m *Model) tea.Cmd {
	return m.run(m.app.CloseRegister)
}

func submitTask(m *Model) tea.Cmd {
	f := TaskForm{
		Title:       m.task[0].Value(),
		Description: m.task[1].Value(),
		Priority:    m.task[2].Value(),
		Due:         m.task[3].Value(),
	}
	cmd := m.run(func() error { return m.app.HandleCreateTask(m.ctx, f) })
	if msg, ok := m.app.View().Message(); ok && msg.Kind == view.KindSuccess {
		m.mode = modeMain
		m.cursor = 0
	}
	return cmd
}

func closeAddTask(m *Model) tea.Cmd {
	m.mode = modeMain
	return nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Task Manager"))
	b.WriteString("\n\n")

	switch m.mode {
	case modeLogin:
		b.WriteString("Username\n")
		b.WriteString(m.username.View())
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("enter: log in  ctrl+r: register  esc: quit"))
	case modeRegister:
		b.WriteString(modalStyle.Render(m.formView("Register", []string{"Username", "Email", "Full name"}, m.register)))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("tab: next field  enter: create account  esc: cancel"))
	case modeAddTask:
		b.WriteString(modalStyle.Render(m.formView("New task", []string{"Title", "Description", "Priority", "Due"}, m.task)))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("tab: next field  enter: save  esc: cancel"))
	default:
		b.WriteString(m.mainView())
	}

	if msg, ok := m.app.View().Message(); ok {
		b.WriteString("\n\n")
		b.WriteString(messageStyles[msg.Kind].Render(msg.Text))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) formView(title string, labels []string, fields []textinput.Model) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	for i, f := range fields {
		b.WriteString("\n")
		b.WriteString(labels[i])
		b.WriteString("\n")
		b.WriteString(f.View())
	}
	return b.String()
}

func (m Model) mainView() string {
	s := m.app.Screen()
	var b strings.Builder
	text := func(id string) string {
		e, err := s.Element(id)
		if err != nil || !e.Visible {
			return ""
		}
		return e.Text
	}
	if w := text(view.WelcomeMessage); w != "" {
		b.WriteString(w)
		b.WriteString("  ")
	}
	b.WriteString(hintStyle.Render(text(view.UserInfo)))
	b.WriteString("\n")
	if st, err := s.Element(view.TaskStats); err == nil {
		b.WriteString(hintStyle.Render(st.Text))
	}
	b.WriteString("\n\n")

	list, err := s.Element(view.TaskList)
	if err == nil {
		tasks := m.app.View().Tasks()
		now := time.Now()
		for i, line := range list.Lines {
			prefix := "  "
			if i < len(tasks) {
				switch {
				case tasks[i].Completed:
					line = doneStyle.Render(line)
				case tasks[i].IsOverdue(now):
					line = overdueStyle.Render(line)
				}
				if i == m.cursor {
					prefix = cursorStyle.Render("> ")
				}
			}
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("a: add  space: toggle  d: delete  o: overdue  r: refresh  l: log out  q: quit"))
	return b.String()
}

// Run starts the terminal program and blocks until the user quits.
func Run(ctx context.Context, app *App) error {
	p := tea.NewProgram(NewModel(ctx, app), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
