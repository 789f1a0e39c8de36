package models

import "strings"

// Role is the access level of an account
type Role string

// Role constants
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an account as stored under the "users" key
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password"` // bcrypt hash, or a werkzeug hash from older deployments
	Role         Role   `json:"role"`
}

// NormalizeUsername trims and lowercases a username the way it is stored and compared
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
