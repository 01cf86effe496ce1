package users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/GeoAtlas/Region-Backend/internal/apperror"
	"github.com/GeoAtlas/Region-Backend/internal/geocoding"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service owns the user lifecycle. The geocoding resolver is injected by the
// composition root; user writes that need address/coordinate resolution fail
// when it is unavailable.
type Service struct {
	db  *gorm.DB
	geo geocoding.Resolver
}

func NewService(db *gorm.DB, geo geocoding.Resolver) *Service {
	return &Service{db: db, geo: geo}
}

type CreateInput struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	Address     *geocoding.Address `json:"address,omitempty"`
	Coordinates []float64          `json:"coordinates,omitempty"` // [lng, lat]
}

type UpdateInput struct {
	Name        *string            `json:"name,omitempty"`
	Email       *string            `json:"email,omitempty"`
	Address     *geocoding.Address `json:"address,omitempty"`
	Coordinates []float64          `json:"coordinates,omitempty"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*UserOut, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperror.OperationFailed("user", "Name, email, and password are required")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, apperror.OperationFailed("user", "Invalid email address")
	}
	if in.Address != nil && len(in.Coordinates) > 0 {
		return nil, apperror.OperationFailed("user", "Please provide only coordinates or address, not both")
	}
	if in.Address == nil && len(in.Coordinates) == 0 {
		return nil, apperror.OperationFailed("user", "Please provide coordinates or address")
	}

	var existing User
	if err := s.db.WithContext(ctx).First(&existing, "email = ?", in.Email).Error; err == nil {
		log.Printf("[users] attempted to create duplicate user: %s", in.Email)
		return nil, apperror.OperationFailed("user", "User already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Database("user", err)
	}

	user := User{ID: uuid.NewString(), Name: in.Name, Email: in.Email}

	if err := s.resolveLocation(ctx, &user, in.Address, in.Coordinates); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Database("user", err)
	}
	user.HashedPassword = string(hashed)

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, apperror.Database("user", err)
	}

	log.Printf("[users] user created: %s", user.ID)
	return s.toOut(ctx, &user)
}

func (s *Service) FindByID(ctx context.Context, id string) (*UserOut, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	var user User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.Database("user", err)
	}

	return s.toOut(ctx, &user)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*UserOut, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if in.Address != nil && len(in.Coordinates) > 0 {
		return nil, apperror.OperationFailed("user", "Cannot update address and coordinates simultaneously")
	}
	if in.Email != nil && !emailPattern.MatchString(*in.Email) {
		return nil, apperror.OperationFailed("user", "Invalid email address")
	}

	var user User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.Database("user", err)
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}

	// Supplying one of address/coordinates clears the other and re-resolves it
	// through the geocoder; omitted location fields stay untouched.
	if in.Address != nil || len(in.Coordinates) > 0 {
		if err := s.resolveLocation(ctx, &user, in.Address, in.Coordinates); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, apperror.Database("user", err)
	}

	return s.toOut(ctx, &user)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Regions are owned by user_id, so deleting them here keeps the derived
		// region list consistent with a single transactional boundary.
		if err := tx.Exec(`DELETE FROM geo.regions WHERE user_id = ?`, id).Error; err != nil {
			return apperror.Database("user", err)
		}

		res := tx.Delete(&User{}, "id = ?", id)
		if res.Error != nil {
			return apperror.Database("user", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("user", id)
		}
		return nil
	})
}

// VerifyCredentials returns the user when email+password match, nil otherwise.
// A nil, nil return means "invalid credentials", not an internal failure.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*UserOut, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.Database("user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, nil
	}

	return s.toOut(ctx, &user)
}

func (s *Service) resolveLocation(ctx context.Context, user *User, addr *geocoding.Address, coords []float64) error {
	if s.geo == nil {
		return apperror.OperationFailed("user", "Geocoding is not configured")
	}

	if len(coords) > 0 {
		if len(coords) != 2 {
			return apperror.OperationFailed("user", "Coordinates must be a [longitude, latitude] pair")
		}
		lng, lat := coords[0], coords[1]
		if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
			return apperror.OperationFailed("user", "Coordinates out of valid range")
		}

		resolved, err := s.geo.ReverseGeocode(ctx, lat, lng)
		if err != nil {
			return apperror.OperationFailed("user", fmt.Sprintf("Could not resolve address from coordinates: %v", err))
		}
		user.Lng, user.Lat = &lng, &lat
		user.Address = *resolved
		return nil
	}

	lat, lng, err := s.geo.Geocode(ctx, *addr)
	if err != nil {
		return apperror.OperationFailed("user", fmt.Sprintf("Could not resolve coordinates from address: %v", err))
	}
	user.Address = *addr
	user.Lng, user.Lat = &lng, &lat
	return nil
}

// regionIDs derives the user's region list from the regions table.
func (s *Service) regionIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.WithContext(ctx).Raw(
		`SELECT id FROM geo.regions WHERE user_id = ? ORDER BY created_at`, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Service) toOut(ctx context.Context, user *User) (*UserOut, error) {
	regions, err := s.regionIDs(ctx, user.ID)
	if err != nil {
		return nil, apperror.Database("user", err)
	}

	out := &UserOut{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Regions:   regions,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if user.Address != (geocoding.Address{}) {
		addr := user.Address
		out.Address = &addr
	}
	if user.Lng != nil && user.Lat != nil {
		out.Coordinates = []float64{*user.Lng, *user.Lat}
	}
	return out, nil
}

func validateID(id string) error {
	if id == "" {
		return apperror.OperationFailed("user", "User ID is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperror.OperationFailed("user", "Invalid user ID")
	}
	return nil
}
