package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest represents a dashboard account registration
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PingUser is the user summary returned by ping
type PingUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PingResponse identifies the session owner
type PingResponse struct {
	UserID int64    `json:"user_id"`
	User   PingUser `json:"user"`
}
