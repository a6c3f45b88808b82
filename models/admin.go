package models

import (
	"time"
)

// AdminRole controls what a dashboard operator may change.
type AdminRole string

const (
	RoleAdmin  AdminRole = "admin"
	RoleViewer AdminRole = "viewer"
)

// AdminUser is the authenticated dashboard operator.
type AdminUser struct {
	ID       int64     `json:"id"`
	AdminID  int64     `json:"admin_id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Role     AdminRole `json:"role"`
}

// Admin is the ReadStore admin directory row. Password holds either a legacy
// plaintext value or a bcrypt hash written by a profile update.
type Admin struct {
	AdminID   int64     `gorm:"column:admin_id;primaryKey" json:"admin_id"`
	Name      string    `gorm:"column:name" json:"name"`
	Username  string    `gorm:"column:username;index" json:"username"`
	Password  string    `gorm:"column:Password" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Admin) TableName() string { return "Admin" }

// User converts the directory row into the session identity.
func (a Admin) User() AdminUser {
	return AdminUser{
		ID:       a.AdminID,
		AdminID:  a.AdminID,
		Name:     a.Name,
		Username: a.Username,
		Role:     RoleAdmin,
	}
}
