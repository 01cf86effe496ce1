package users

import (
	"time"

	"github.com/GeoAtlas/Region-Backend/internal/geocoding"
)

type User struct {
	ID             string            `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string            `gorm:"not null" json:"name"`
	Email          string            `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string            `gorm:"not null" json:"-"`
	Address        geocoding.Address `gorm:"embedded;embeddedPrefix:addr_" json:"-"`
	Lng            *float64          `gorm:"column:lng" json:"-"`
	Lat            *float64          `gorm:"column:lat" json:"-"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func (User) TableName() string { return "app_auth.users" }

// UserOut is the API projection of a user. The password hash never leaves the
// server and the region list is derived by querying regions by owner.
type UserOut struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Address     *geocoding.Address `json:"address,omitempty"`
	Coordinates []float64          `json:"coordinates,omitempty"` // [lng, lat]
	Regions     []string           `json:"regions"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}
