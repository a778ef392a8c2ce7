package dto

import "taskapp/internal/controller"

// LoginRequest is the JSON body for POST /auth/login.
// A blank username is rejected by the controller, not by binding.
type LoginRequest struct {
	Username string `json:"username"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=1,max=50"`
	Email    string `json:"email" binding:"omitempty,email"`
	FullName string `json:"fullName" binding:"max=100"`
}

func (r RegisterRequest) Input() controller.RegisterInput {
	return controller.RegisterInput{Username: r.Username, Email: r.Email, FullName: r.FullName}
}
