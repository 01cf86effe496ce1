package regions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GeoAtlas/Region-Backend/internal/apperror"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockService backs a Service with a sqlmock connection so the raw spatial
// SQL can be exercised without a PostGIS instance.
func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	return NewService(gdb), mock
}

func wantAppError(t *testing.T, err error, status int, fragment string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", fragment)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Status != status {
		t.Errorf("expected status %d, got %d", status, appErr.Status)
	}
	if !strings.Contains(appErr.Message, fragment) {
		t.Errorf("expected message to contain %q, got %q", fragment, appErr.Message)
	}
}

func regionColumns() []string {
	return []string{"id", "name", "st_asgeojson", "user_id", "owner_name", "owner_email", "created_at", "updated_at"}
}

func mustGeoJSON(t *testing.T, p *Polygon) string {
	t.Helper()
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal polygon: %v", err)
	}
	return string(b)
}

func TestCreate_RejectsShortName(t *testing.T) {
	svc, mock := newMockService(t)

	_, err := svc.Create(context.Background(), "ab", closedSquare(), uuid.NewString())
	wantAppError(t, err, http.StatusBadRequest, "at least 3 characters")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL should run for a name validation failure: %v", err)
	}
}

func TestCreate_RejectsOpenPolygon(t *testing.T) {
	svc, mock := newMockService(t)

	open := &Polygon{
		Type: "Polygon",
		Coordinates: [][][2]float64{{
			{-46.633308, -23.55052},
			{-46.633308, -23.54052},
			{-46.623308, -23.54052},
		}},
	}

	_, err := svc.Create(context.Background(), "Test Region", open, uuid.NewString())
	wantAppError(t, err, http.StatusBadRequest, "Invalid polygon structure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL should run for a polygon validation failure: %v", err)
	}
}

func TestCreate_RejectsUnclosedRing(t *testing.T) {
	svc, _ := newMockService(t)

	unclosed := &Polygon{
		Type: "Polygon",
		Coordinates: [][][2]float64{{
			{-46.633308, -23.55052},
			{-46.633308, -23.54052},
			{-46.623308, -23.54052},
			{-46.623308, -23.55052},
		}},
	}

	_, err := svc.Create(context.Background(), "Test Region", unclosed, uuid.NewString())
	wantAppError(t, err, http.StatusBadRequest, "must be closed")
}

func TestCreate_RejectsMissingOwner(t *testing.T) {
	svc, _ := newMockService(t)

	_, err := svc.Create(context.Background(), "Test Region", closedSquare(), "")
	wantAppError(t, err, http.StatusBadRequest, "User is required")

	_, err = svc.Create(context.Background(), "Test Region", closedSquare(), "not-a-uuid")
	wantAppError(t, err, http.StatusBadRequest, "Invalid user ID")
}

func TestCreate_RejectsOverlap(t *testing.T) {
	svc, mock := newMockService(t)
	ownerID := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM app_auth\.users`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`ST_Intersects\(geometry, ST_SetSRID\(ST_GeomFromGeoJSON`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), "Test Region", closedSquare(), ownerID)
	wantAppError(t, err, http.StatusBadRequest, "Region overlaps with existing regions")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreate_RejectsUnknownOwner(t *testing.T) {
	svc, mock := newMockService(t)
	ownerID := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM app_auth\.users`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), "Test Region", closedSquare(), ownerID)
	wantAppError(t, err, http.StatusBadRequest, "User not found")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreate_Success(t *testing.T) {
	svc, mock := newMockService(t)
	ownerID := uuid.NewString()
	geo := mustGeoJSON(t, closedSquare())
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM app_auth\.users`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`ST_Intersects\(geometry, ST_SetSRID\(ST_GeomFromGeoJSON`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO geo\.regions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`WHERE r\.id =`).
		WillReturnRows(sqlmock.NewRows(regionColumns()).
			AddRow("some-id", "Test Region", geo, ownerID, "Demo User", "demo@example.com", now, now))

	region, err := svc.Create(context.Background(), "Test Region", closedSquare(), ownerID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if region.Name != "Test Region" {
		t.Errorf("expected name %q, got %q", "Test Region", region.Name)
	}
	if region.Owner.Email != "demo@example.com" {
		t.Errorf("owner projection not resolved: %+v", region.Owner)
	}
	if len(region.Polygon.Coordinates) != 1 || len(region.Polygon.Coordinates[0]) != 5 {
		t.Errorf("polygon not round-tripped: %+v", region.Polygon)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// Updating a region's polygon to the exact same geometry must never conflict
// with itself: the overlap query carries the region id as exclusion.
func TestUpdate_SamePolygonExcludesSelf(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.NewString()
	geo := mustGeoJSON(t, closedSquare())
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`ST_Intersects\(geometry, ST_SetSRID\(ST_GeomFromGeoJSON\(.+\)\) AND id <>`).
		WithArgs(geo, id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`UPDATE geo\.regions SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`WHERE r\.id =`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(regionColumns()).
			AddRow(id, "Test Region", geo, uuid.NewString(), "Demo User", "demo@example.com", now, now))

	region, err := svc.Update(context.Background(), id, UpdateInput{Polygon: closedSquare()})
	if err != nil {
		t.Fatalf("Update with identical polygon failed: %v", err)
	}
	if region.ID != id {
		t.Errorf("expected id %s, got %s", id, region.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdate_NameOnlySkipsOverlapCheck(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.NewString()
	geo := mustGeoJSON(t, closedSquare())
	now := time.Now()
	name := "Renamed Region"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE geo\.regions SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`WHERE r\.id =`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(regionColumns()).
			AddRow(id, name, geo, uuid.NewString(), "Demo User", "demo@example.com", now, now))

	region, err := svc.Update(context.Background(), id, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("name-only update failed: %v", err)
	}
	if region.Name != name {
		t.Errorf("expected name %q, got %q", name, region.Name)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.NewString()
	name := "Renamed Region"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE geo\.regions SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), id, UpdateInput{Name: &name})
	wantAppError(t, err, http.StatusNotFound, "not found")
}

func TestUpdate_RejectsEmptyID(t *testing.T) {
	svc, _ := newMockService(t)

	_, err := svc.Update(context.Background(), "", UpdateInput{})
	wantAppError(t, err, http.StatusBadRequest, "Region ID is required")
}

func TestDelete_RejectsMalformedID(t *testing.T) {
	svc, mock := newMockService(t)

	err := svc.Delete(context.Background(), "not-a-uuid")
	wantAppError(t, err, http.StatusBadRequest, "Invalid region ID")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL should run for a malformed id: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.NewString()

	mock.ExpectExec(`DELETE FROM geo\.regions`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Delete(context.Background(), id)
	wantAppError(t, err, http.StatusNotFound, "not found")
}

func TestDelete_Success(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.NewString()

	mock.ExpectExec(`DELETE FROM geo\.regions`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindByPoint_RejectsInvalidCoordinates(t *testing.T) {
	svc, mock := newMockService(t)

	bad := []Point{
		{Lng: -181, Lat: 0},
		{Lng: 181, Lat: 0},
		{Lng: 0, Lat: -91},
		{Lng: 0, Lat: 91},
	}

	for _, p := range bad {
		_, err := svc.FindByPoint(context.Background(), p)
		wantAppError(t, err, http.StatusBadRequest, "Invalid coordinates")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL should run for invalid coordinates: %v", err)
	}
}

func TestFindByPoint_ReturnsContainingRegions(t *testing.T) {
	svc, mock := newMockService(t)
	geo := mustGeoJSON(t, closedSquare())
	now := time.Now()

	mock.ExpectQuery(`ST_Intersects\(r\.geometry, ST_SetSRID\(ST_MakePoint`).
		WithArgs(-46.63, -23.55).
		WillReturnRows(sqlmock.NewRows(regionColumns()).
			AddRow("region-1", "Test Region", geo, "user-1", "Demo User", "demo@example.com", now, now))

	regions, err := svc.FindByPoint(context.Background(), Point{Lng: -46.63, Lat: -23.55})
	if err != nil {
		t.Fatalf("FindByPoint failed: %v", err)
	}
	if len(regions) != 1 || regions[0].ID != "region-1" {
		t.Errorf("expected exactly the containing region, got %+v", regions)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindNearPoint_RejectsInvalidDistance(t *testing.T) {
	svc, mock := newMockService(t)

	for _, d := range []float64{0, -1, -1000} {
		_, err := svc.FindNearPoint(context.Background(), Point{Lng: -46.63, Lat: -23.55}, d, "")
		wantAppError(t, err, http.StatusBadRequest, "Distance must be greater than 0")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL should run for an invalid distance: %v", err)
	}
}

// The proximity query must carry the distance bound, the optional owner
// filter, and the nearest-first ordering.
func TestFindNearPoint_FiltersAndOrders(t *testing.T) {
	svc, mock := newMockService(t)
	geo := mustGeoJSON(t, closedSquare())
	now := time.Now()
	ownerID := uuid.NewString()

	mock.ExpectQuery(`ST_DWithin\(.+\).+AND r\.user_id = .+ORDER BY ST_Distance`).
		WithArgs(-46.63, -23.55, 1000.0, ownerID, -46.63, -23.55).
		WillReturnRows(sqlmock.NewRows(regionColumns()).
			AddRow("near", "Near Region", geo, ownerID, "Demo User", "demo@example.com", now, now).
			AddRow("far", "Far Region", geo, ownerID, "Demo User", "demo@example.com", now, now))

	regions, err := svc.FindNearPoint(context.Background(), Point{Lng: -46.63, Lat: -23.55}, 1000, ownerID)
	if err != nil {
		t.Fatalf("FindNearPoint failed: %v", err)
	}
	if len(regions) != 2 || regions[0].ID != "near" || regions[1].ID != "far" {
		t.Errorf("distance ordering not preserved: %+v", regions)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFindNearPoint_EmptyWhenNothingNearby(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`ST_DWithin`).
		WithArgs(-47.0, -24.0, 1000.0, -47.0, -24.0).
		WillReturnRows(sqlmock.NewRows(regionColumns()))

	regions, err := svc.FindNearPoint(context.Background(), Point{Lng: -47.0, Lat: -24.0}, 1000, "")
	if err != nil {
		t.Fatalf("FindNearPoint failed: %v", err)
	}
	if regions == nil || len(regions) != 0 {
		t.Errorf("expected empty, non-nil result, got %+v", regions)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.NewString()

	mock.ExpectQuery(`WHERE r\.id =`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(regionColumns()))

	_, err := svc.FindByID(context.Background(), id)
	wantAppError(t, err, http.StatusNotFound, "not found")
}

func TestFindAll_PropagatesDatabaseError(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`FROM geo\.regions r`).
		WillReturnError(errors.New("connection reset"))

	_, err := svc.FindAll(context.Background())
	wantAppError(t, err, http.StatusInternalServerError, "Internal server error")
}
