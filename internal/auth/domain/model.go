// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// User represents a system user account.
type User struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name         string       `json:"name" gorm:"type:varchar(255);not null"`
	Email        string       `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string       `json:"-" gorm:"type:text;not null"`
	Role         string       `json:"role" gorm:"type:varchar(32);not null;default:member"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session backs one issued bearer token. The token's jti is the session id,
// so revoking the row invalidates the token before it expires.
type Session struct {
	ID         snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	UserID     snowflake.ID `gorm:"column:user_id;not null;index"`
	UserAgent  string       `gorm:"column:user_agent;type:text"`
	IPAddress  string       `gorm:"column:ip_address;type:varchar(64)"`
	ExpiresAt  time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt  *time.Time   `gorm:"column:revoked_at"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null"`
	LastSeenAt time.Time    `gorm:"column:last_seen_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID    snowflake.ID
	SessionID snowflake.ID
	Email     string
	Role      string
}
