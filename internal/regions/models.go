package regions

import (
	"time"
)

// Region is the persisted row. The boundary lives in a PostGIS
// geometry(Polygon, 4326) column with a GiST index; all reads and writes of it
// go through raw spatial SQL, so gorm never touches the column directly.
type Region struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Geometry  string    `gorm:"type:geometry(Polygon,4326)" json:"-"`
	UserID    string    `gorm:"type:uuid;index;not null;column:user_id" json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Region) TableName() string { return "geo.regions" }

// OwnerOut is the read-side projection of a region's owner.
type OwnerOut struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegionOut is the API projection of a region with its owner resolved.
type RegionOut struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Polygon   Polygon   `json:"polygon"`
	Owner     OwnerOut  `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
