package regions

import (
	"log"

	"github.com/GeoAtlas/Region-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "geo"); err != nil {
		log.Fatal("Failed to ensure schema geo: ", err)
	}

	if err := db.EnsurePostGIS(db.DB); err != nil {
		log.Fatal("Failed to enable PostGIS: ", err)
	}

	if err := db.DB.AutoMigrate(&Region{}); err != nil {
		log.Fatal("Failed to auto-migrate regions table: ", err)
	}

	// GiST index backing the intersect/contains/near queries.
	if err := db.DB.Exec(`
        CREATE INDEX IF NOT EXISTS regions_geometry_gist
        ON geo.regions USING GIST (geometry);
    `).Error; err != nil {
		log.Fatal("Failed to create regions_geometry_gist: ", err)
	}
}
