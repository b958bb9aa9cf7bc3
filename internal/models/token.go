package models

import "time"

// AccessToken is a bearer credential issued by login. Only the SHA-256 of
// the token is stored; the plain value is returned once to the client.
type AccessToken struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"not null;index"`
	TokenHash  string     `json:"-" gorm:"uniqueIndex;not null;type:varchar(64)"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`

	// Foreign Key Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
