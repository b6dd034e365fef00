package model

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the payload of POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
