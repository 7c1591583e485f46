package handler

import "time"

// errorResponse is the envelope for every API error.
type errorResponse struct {
	Error string `json:"error" example:"Invalid credentials"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// userView is the public projection of a user; it never carries the hash.
type userView struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	EndpointID string `json:"endpointId"`
}

type userLoginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type adminLoginResponse struct {
	Token string `json:"token"`
}

type createUserRequest struct {
	Username   string `json:"username"   validate:"required"`
	Password   string `json:"password"   validate:"required,max=72"`
	EndpointID string `json:"endpointId" validate:"required"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	EndpointID string    `json:"endpointId"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}
