package models

// Session is the identity attached to a request after a successful login
type Session struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the session belongs to an administrator
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// NoticeCategory distinguishes success notices from error notices
type NoticeCategory string

// NoticeCategory constants
const (
	NoticeSuccess NoticeCategory = "success"
	NoticeError   NoticeCategory = "error"
)

// Notice is a one-shot message shown on the next rendered page
type Notice struct {
	Category NoticeCategory `json:"category"`
	Message  string         `json:"message"`
}
