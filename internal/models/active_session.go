package models

import "time"

// ActiveSession is the single mutable presence row of a logged in user.
type ActiveSession struct {
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username"`
	UserName      string    `json:"user_name"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	LastActivity  time.Time `json:"last_activity"`
	CurrentPage   *string   `json:"current_page,omitempty"`
	CurrentAction *string   `json:"current_action,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type HeartbeatRequest struct {
	CurrentPage   *string `json:"current_page" validate:"omitempty,max=200"`
	CurrentAction *string `json:"current_action" validate:"omitempty,max=200"`
}
