// Package view renders controller results onto a Screen of named elements.
package view

import (
	"fmt"
	"sync"
)

// Element ids the application depends on.
const (
	LoginSection   = "loginSection"
	MainContent    = "mainContent"
	UserInfo       = "userInfo"
	WelcomeMessage = "welcomeMessage"
	RegisterModal  = "registerModal"
	UsernameInput  = "usernameInput"
	TaskList       = "taskList"
	TaskStats      = "taskStats"
	ShowOverdueBtn = "showOverdueBtn"
	RefreshTasks   = "refreshTasks"
	LoginBtn       = "loginBtn"
	LogoutBtn      = "logoutBtn"
	RegisterForm   = "registerForm"
)

// RequiredElements lists every element the bootstrap expects to find.
var RequiredElements = []string{
	LoginSection, MainContent, UserInfo, WelcomeMessage, RegisterModal,
	UsernameInput, TaskList, TaskStats, ShowOverdueBtn, RefreshTasks,
	LoginBtn, LogoutBtn, RegisterForm,
}

// ElementMissingError reports a lookup of an element that is not on the screen.
type ElementMissingError struct {
	ID string
}

func (e *ElementMissingError) Error() string {
	return fmt.Sprintf("element %q is missing", e.ID)
}

// Element is one addressable region of the screen.
type Element struct {
	ID      string
	Visible bool
	Text    string
	Value   string
	Lines   []string
}

// Screen is a set of named elements shared by the view and the bootstrap.
type Screen struct {
	mu       sync.RWMutex
	elements map[string]*Element
}

// NewScreen returns a screen holding the given element ids, all hidden.
func NewScreen(ids ...string) *Screen {
	s := &Screen{elements: make(map[string]*Element, len(ids))}
	for _, id := range ids {
		s.elements[id] = &Element{ID: id}
	}
	return s
}

// DefaultScreen returns a screen with every required element.
func DefaultScreen() *Screen {
	return NewScreen(RequiredElements...)
}

// Element returns a copy of the element with id.
func (s *Screen) Element(id string) (Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.elements[id]
	if !ok {
		return Element{}, &ElementMissingError{ID: id}
	}
	out := *e
	out.Lines = append([]string(nil), e.Lines...)
	return out, nil
}

// Check returns an error for the first id that is not present.
func (s *Screen) Check(ids ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if _, ok := s.elements[id]; !ok {
			return &ElementMissingError{ID: id}
		}
	}
	return nil
}

func (s *Screen) update(id string, fn func(*Element)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.elements[id]
	if !ok {
		return &ElementMissingError{ID: id}
	}
	fn(e)
	return nil
}

func (s *Screen) Show(id string) error {
	return s.update(id, func(e *Element) { e.Visible = true })
}

func (s *Screen) Hide(id string) error {
	return s.update(id, func(e *Element) { e.Visible = false })
}

func (s *Screen) SetText(id, text string) error {
	return s.update(id, func(e *Element) { e.Text = text })
}

func (s *Screen) SetValue(id, value string) error {
	return s.update(id, func(e *Element) { e.Value = value })
}

func (s *Screen) SetLines(id string, lines []string) error {
	return s.update(id, func(e *Element) { e.Lines = append([]string(nil), lines...) })
}

// Value returns the input value of id.
func (s *Screen) Value(id string) (string, error) {
	e, err := s.Element(id)
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

// Visible reports whether id is shown. Missing elements are reported as hidden.
func (s *Screen) Visible(id string) bool {
	e, err := s.Element(id)
	return err == nil && e.Visible
}
