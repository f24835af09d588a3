package models

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
}

type LoginCredentials struct {
	Username string
	Password string
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
