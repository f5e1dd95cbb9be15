package dto

import "github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Token string      `json:"token"`
	ID    string      `json:"_id"`
	Role  domain.Role `json:"role"`
	Name  string      `json:"name"`
}

// ProfileResponse is the body of GET /admins/me and GET /employees/me.
type ProfileResponse = domain.Profile

// MessageResponse carries a human readable status or error message.
type MessageResponse struct {
	Message string `json:"message"`
}
