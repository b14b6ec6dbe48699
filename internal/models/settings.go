package models

import "time"

// SingletonID is the fixed primary key of every settings row.
const SingletonID = 1

type Announcement struct {
	ID        int       `json:"id"`
	Message   string    `json:"message" validate:"max=1000"`
	Type      string    `json:"type" validate:"omitempty,oneof=info warning danger success"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

type PopupAnnouncement struct {
	ID        int       `json:"id"`
	Title     string    `json:"title" validate:"max=200"`
	Message   string    `json:"message" validate:"max=4000"`
	ImageURL  string    `json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

type BanSettings struct {
	ID              int       `json:"id"`
	IsActive        bool      `json:"is_active"`
	Title           string    `json:"title" validate:"max=200"`
	Message         string    `json:"message" validate:"max=2000"`
	BannedUsernames []string  `json:"banned_usernames"`
	UpdatedAt       time.Time `json:"updated_at"`
	UpdatedBy       string    `json:"updated_by"`
}

// IsBanned reports whether the ban screen applies to username.
func (b *BanSettings) IsBanned(username string) bool {
	if b == nil || !b.IsActive {
		return false
	}
	for _, u := range b.BannedUsernames {
		if u == username {
			return true
		}
	}
	return false
}

type SiteLockdown struct {
	ID        int       `json:"id"`
	IsLocked  bool      `json:"is_locked"`
	Message   string    `json:"message" validate:"max=2000"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}
