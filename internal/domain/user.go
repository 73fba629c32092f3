package domain

import "time"

// User is a site member. Level 10+ is admin, matching the forum's member
// level convention.
type User struct {
	ID        string    `gorm:"column:id;primaryKey;type:char(36)" json:"id"`
	Nickname  string    `gorm:"column:nickname;type:varchar(100)" json:"nickname"`
	Email     string    `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`
	Level     int       `gorm:"column:level" json:"level"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user has admin powers.
func (u *User) IsAdmin() bool {
	return u != nil && u.Level >= 10
}

// IsPrivileged users get their HTML stored unsanitized.
func (u *User) IsPrivileged() bool {
	return u.IsAdmin()
}

// CanViewAllDrafts is the global "view all documents including
// unreviewed/draft" capability.
func (u *User) CanViewAllDrafts() bool {
	return u.IsAdmin()
}
