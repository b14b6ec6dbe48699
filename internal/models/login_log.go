package models

import "time"

const (
	ActionLogin       = "login"
	ActionLogout      = "logout"
	ActionFailedLogin = "failed_login"
	ActionAutoLogin   = "auto_login"
)

// LoginLog is an append-only audit row. Rows are never updated.
type LoginLog struct {
	ID             int64     `json:"id"`
	UserID         *int64    `json:"user_id,omitempty"`
	Username       string    `json:"username"`
	UserName       string    `json:"user_name"`
	DepartmentName string    `json:"department_name"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	Location       string    `json:"location,omitempty"`
	Action         string    `json:"action"`
	CreatedAt      time.Time `json:"created_at"`
}

type LoginLogFilter struct {
	Action   string
	Username string
	Since    time.Time
	Limit    int
}

type LoginStats struct {
	TotalLogins24h  int `json:"total_logins_24h"`
	UniqueUsers24h  int `json:"unique_users_24h"`
	FailedLogins24h int `json:"failed_logins_24h"`
	ActiveNow       int `json:"active_now"`
}
