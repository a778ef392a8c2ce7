// Package controller holds the user and task workflows. Every operation
// answers with a Result; a Go error is returned only when the storage layer
// itself fails.
package controller

// Result is the uniform answer of every controller method.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Count   *int   `json:"count,omitempty"`
	// Code classifies a failure for transports that need it (HTTP status mapping).
	Code Code `json:"-"`
}

// Code classifies an unsuccessful Result.
type Code int

const (
	CodeOK Code = iota
	CodeInvalid
	CodeNotFound
	CodeConflict
	CodeUnauthenticated
)

func ok(data any, message string) Result {
	return Result{Success: true, Data: data, Message: message}
}

func okList[T any](list []T, message string) Result {
	if list == nil {
		list = []T{}
	}
	n := len(list)
	return Result{Success: true, Data: list, Message: message, Count: &n}
}

func fail(code Code, msg string) Result {
	return Result{Success: false, Error: msg, Code: code}
}
