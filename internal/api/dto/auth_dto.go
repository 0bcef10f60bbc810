package dto

import "time"

// AdminLoginRequest payload.
type AdminLoginRequest struct {
	AccessKey string `json:"access_key"`
}

// WorkerLoginRequest payload.
type WorkerLoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Name      string    `json:"name,omitempty"`
	Team      string    `json:"team,omitempty"`
}
