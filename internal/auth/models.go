package auth

import "time"

// Token is an opaque bearer token row. The value itself carries no claims;
// everything is resolved from this table.
type Token struct {
	Token     string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"-"`
}

func (Token) TableName() string { return "app_auth.tokens" }
