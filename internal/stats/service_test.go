package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/parcelhub/parcelhub-backend/internal/packages"
	"github.com/parcelhub/parcelhub-backend/pkg/db/models"
	"github.com/parcelhub/parcelhub-backend/pkg/enums"
)

type fakeCodeCounter struct {
	active int64
}

func (f fakeCodeCounter) CountActive(ctx context.Context) (int64, error) {
	return f.active, nil
}

func setupStatsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:stats_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS packages (
  id TEXT PRIMARY KEY,
  tracking_code TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_email TEXT,
  courier_id TEXT,
  location_id TEXT,
  status TEXT NOT NULL,
  expected_arrival DATETIME,
  notes TEXT,
  signature_ref TEXT,
  photo_ref TEXT,
  qr_code_ref TEXT,
  archived_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seed(t *testing.T, db *gorm.DB, status enums.PackageStatus, createdAt, updatedAt time.Time) {
	t.Helper()
	pkg := &models.Package{
		ID:            uuid.New(),
		TrackingCode:  "TRK-" + uuid.NewString()[:8],
		CustomerName:  "Mario Rossi",
		CustomerPhone: "+391234567890",
		Status:        status,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	require.NoError(t, db.Create(pkg).Error)
}

func TestServiceCompute(t *testing.T) {
	db := setupStatsTestDB(t)
	now := time.Now()

	// Two picked up after three days in the house, one expired, one waiting.
	seed(t, db, enums.PackageStatusPickedUp, now.Add(-5*24*time.Hour), now.Add(-2*24*time.Hour))
	seed(t, db, enums.PackageStatusPickedUp, now.Add(-4*24*time.Hour), now.Add(-1*24*time.Hour))
	seed(t, db, enums.PackageStatusStorageExpired, now.Add(-60*24*time.Hour), now.Add(-20*24*time.Hour))
	seed(t, db, enums.PackageStatusInStorage, now.Add(-time.Hour), now.Add(-time.Hour))

	svc, err := NewService(db, packages.NewRepository(db), fakeCodeCounter{active: 3})
	require.NoError(t, err)

	report, err := svc.Compute(context.Background(), Range{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.TotalsByStatus[enums.PackageStatusPickedUp])
	assert.Equal(t, int64(1), report.TotalsByStatus[enums.PackageStatusStorageExpired])
	assert.Equal(t, int64(1), report.TotalsByStatus[enums.PackageStatusInStorage])
	assert.Equal(t, int64(4), report.CreatedInRange)
	assert.Equal(t, int64(2), report.PickedUpInRange)
	assert.Equal(t, int64(1), report.ExpiredTotal)
	assert.Equal(t, int64(3), report.ActiveCodes)
	assert.InDelta(t, 3.0, report.AvgDaysToPickup, 0.1)
}

func TestServiceComputeWithRange(t *testing.T) {
	db := setupStatsTestDB(t)
	now := time.Now()

	seed(t, db, enums.PackageStatusInStorage, now.Add(-10*24*time.Hour), now.Add(-10*24*time.Hour))
	seed(t, db, enums.PackageStatusInStorage, now.Add(-time.Hour), now.Add(-time.Hour))

	svc, err := NewService(db, packages.NewRepository(db), fakeCodeCounter{})
	require.NoError(t, err)

	report, err := svc.Compute(context.Background(), Range{From: now.Add(-24 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.CreatedInRange)
	assert.Equal(t, float64(0), report.AvgDaysToPickup)
}
