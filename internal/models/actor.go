package models

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor identifies the caller of a repository operation.
type Actor struct {
	UserID   int64
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanModify reports whether the actor may change an entity created by owner.
func (a Actor) CanModify(owner string) bool {
	return a.IsAdmin() || a.Username == owner
}
