package regions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/GeoAtlas/Region-Backend/internal/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// regionWriteLockKey is the advisory-lock key that serializes the overlap
// check with the write that follows it. Without it, two concurrent creates
// with mutually overlapping polygons could both pass the check.
const regionWriteLockKey = int64(0x67656F5F726567) // "geo_reg"

// Service orchestrates the region lifecycle: structural validation, overlap
// detection against committed state, and the point/proximity query engine.
// All spatial work is delegated to PostGIS through the regions GiST index.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type UpdateInput struct {
	Name    *string  `json:"name,omitempty"`
	Polygon *Polygon `json:"polygon,omitempty"`
}

const regionSelect = `
	SELECT r.id, r.name, ST_AsGeoJSON(r.geometry), r.user_id, u.name, u.email, r.created_at, r.updated_at
	FROM geo.regions r
	JOIN app_auth.users u ON u.id = r.user_id`

// Create validates the candidate region, checks it against every committed
// region for overlap, and persists it. Referential integrity to the owner is
// enforced at write time.
func (s *Service) Create(ctx context.Context, name string, polygon *Polygon, ownerID string) (*RegionOut, error) {
	if err := validateName(name); err != nil {
		return nil, apperror.OperationFailed("region", err.Error())
	}
	if err := polygon.Validate(); err != nil {
		return nil, apperror.OperationFailed("region", err.Error())
	}
	if ownerID == "" {
		return nil, apperror.OperationFailed("region", "User is required")
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return nil, apperror.OperationFailed("region", "Invalid user ID")
	}

	geo, err := json.Marshal(polygon)
	if err != nil {
		return nil, apperror.OperationFailed("region", "Invalid polygon structure")
	}

	id := uuid.NewString()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(?)`, regionWriteLockKey).Error; err != nil {
			return apperror.Database("region", err)
		}

		var ownerExists bool
		if err := tx.Raw(`SELECT EXISTS (SELECT 1 FROM app_auth.users WHERE id = ?)`, ownerID).
			Row().Scan(&ownerExists); err != nil {
			return apperror.Database("region", err)
		}
		if !ownerExists {
			return apperror.OperationFailed("region", "User not found")
		}

		overlaps, err := s.hasOverlap(tx, string(geo), "")
		if err != nil {
			return err
		}
		if overlaps {
			return apperror.OperationFailed("region", "Region overlaps with existing regions")
		}

		return s.insert(tx, id, name, string(geo), ownerID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[regions] region created: %s", id)
	return s.FindByID(ctx, id)
}

func (s *Service) insert(tx *gorm.DB, id, name, geo, ownerID string) error {
	err := tx.Exec(`
		INSERT INTO geo.regions (id, name, geometry, user_id, created_at, updated_at)
		VALUES (?, ?, ST_SetSRID(ST_GeomFromGeoJSON(?), 4326), ?, now(), now())`,
		id, name, geo, ownerID).Error
	if err != nil {
		return apperror.Database("region", err)
	}
	return nil
}

// hasOverlap reports whether any committed region's geometry intersects the
// candidate polygon. Any shared boundary or area counts; excludeID removes
// the region being updated from the candidate set.
func (s *Service) hasOverlap(tx *gorm.DB, geo string, excludeID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM geo.regions
		WHERE ST_Intersects(geometry, ST_SetSRID(ST_GeomFromGeoJSON(?), 4326))`
	args := []interface{}{geo}

	if excludeID != "" {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	query += `)`

	var overlaps bool
	if err := tx.Raw(query, args...).Row().Scan(&overlaps); err != nil {
		return false, apperror.Database("region", err)
	}
	return overlaps, nil
}

func (s *Service) FindAll(ctx context.Context) ([]RegionOut, error) {
	rows, err := s.db.WithContext(ctx).Raw(regionSelect).Rows()
	if err != nil {
		return nil, apperror.Database("region", err)
	}
	defer rows.Close()

	return scanRegions(rows)
}

func (s *Service) FindByID(ctx context.Context, id string) (*RegionOut, error) {
	if err := validateRegionID(id); err != nil {
		return nil, err
	}

	rows, err := s.db.WithContext(ctx).Raw(regionSelect+` WHERE r.id = ?`, id).Rows()
	if err != nil {
		return nil, apperror.Database("region", err)
	}
	defer rows.Close()

	regions, err := scanRegions(rows)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, apperror.NotFound("region", id)
	}
	return &regions[0], nil
}

func (s *Service) FindByUser(ctx context.Context, userID string) ([]RegionOut, error) {
	rows, err := s.db.WithContext(ctx).Raw(regionSelect+` WHERE r.user_id = ?`, userID).Rows()
	if err != nil {
		return nil, apperror.Database("region", err)
	}
	defer rows.Close()

	return scanRegions(rows)
}

// Update applies a partial update. Only the supplied fields are re-validated
// and persisted; a polygon change re-runs the overlap check with the region
// itself excluded, so resubmitting an identical polygon never conflicts.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*RegionOut, error) {
	if err := validateRegionID(id); err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := validateName(*in.Name); err != nil {
			return nil, apperror.OperationFailed("region", err.Error())
		}
	}

	var geo string
	if in.Polygon != nil {
		if err := in.Polygon.Validate(); err != nil {
			return nil, apperror.OperationFailed("region", err.Error())
		}
		b, err := json.Marshal(in.Polygon)
		if err != nil {
			return nil, apperror.OperationFailed("region", "Invalid polygon structure")
		}
		geo = string(b)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sets := []string{"updated_at = now()"}
		args := []interface{}{}

		if in.Name != nil {
			sets = append(sets, "name = ?")
			args = append(args, *in.Name)
		}

		if in.Polygon != nil {
			if err := tx.Exec(`SELECT pg_advisory_xact_lock(?)`, regionWriteLockKey).Error; err != nil {
				return apperror.Database("region", err)
			}

			overlaps, err := s.hasOverlap(tx, geo, id)
			if err != nil {
				return err
			}
			if overlaps {
				return apperror.OperationFailed("region", "Region overlaps with existing regions")
			}

			sets = append(sets, "geometry = ST_SetSRID(ST_GeomFromGeoJSON(?), 4326)")
			args = append(args, geo)
		}

		args = append(args, id)
		res := tx.Exec(fmt.Sprintf(`UPDATE geo.regions SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
		if res.Error != nil {
			return apperror.Database("region", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("region", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.FindByID(ctx, id)
}

// Delete removes the region row. The owner's region list is derived from
// user_id, so no follow-up write is needed.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validateRegionID(id); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Exec(`DELETE FROM geo.regions WHERE id = ?`, id)
	if res.Error != nil {
		return apperror.Database("region", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("region", id)
	}

	log.Printf("[regions] region deleted: %s", id)
	return nil
}

// FindByPoint returns every region whose polygon contains or intersects the
// point, owner resolved. Ordering is the persistence layer's natural order.
func (s *Service) FindByPoint(ctx context.Context, p Point) ([]RegionOut, error) {
	if err := p.Validate(); err != nil {
		return nil, apperror.OperationFailed("region", err.Error())
	}

	rows, err := s.db.WithContext(ctx).Raw(regionSelect+`
		WHERE ST_Intersects(r.geometry, ST_SetSRID(ST_MakePoint(?, ?), 4326))`,
		p.Lng, p.Lat).Rows()
	if err != nil {
		return nil, apperror.Database("region", err)
	}
	defer rows.Close()

	return scanRegions(rows)
}

// FindNearPoint returns every region within maxDistance meters of the point,
// optionally restricted to one owner, ordered nearest first.
func (s *Service) FindNearPoint(ctx context.Context, p Point, maxDistance float64, ownerID string) ([]RegionOut, error) {
	if err := p.Validate(); err != nil {
		return nil, apperror.OperationFailed("region", err.Error())
	}
	if maxDistance <= 0 {
		return nil, apperror.OperationFailed("region", ErrInvalidDistance.Error())
	}

	query := regionSelect + `
		WHERE ST_DWithin(r.geometry::geography, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)`
	args := []interface{}{p.Lng, p.Lat, maxDistance}

	if ownerID != "" {
		query += ` AND r.user_id = ?`
		args = append(args, ownerID)
	}

	query += ` ORDER BY ST_Distance(r.geometry::geography, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography)`
	args = append(args, p.Lng, p.Lat)

	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, apperror.Database("region", err)
	}
	defer rows.Close()

	return scanRegions(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanRegions(rows rowScanner) ([]RegionOut, error) {
	regions := []RegionOut{}
	for rows.Next() {
		var out RegionOut
		var geo string
		if err := rows.Scan(
			&out.ID,
			&out.Name,
			&geo,
			&out.Owner.ID,
			&out.Owner.Name,
			&out.Owner.Email,
			&out.CreatedAt,
			&out.UpdatedAt,
		); err != nil {
			return nil, apperror.Database("region", err)
		}

		if err := json.Unmarshal([]byte(geo), &out.Polygon); err != nil {
			return nil, apperror.Database("region", fmt.Errorf("malformed geometry for region %s: %w", out.ID, err))
		}

		regions = append(regions, out)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Database("region", err)
	}
	return regions, nil
}

func validateRegionID(id string) error {
	if id == "" {
		return apperror.OperationFailed("region", "Region ID is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperror.OperationFailed("region", "Invalid region ID")
	}
	return nil
}
