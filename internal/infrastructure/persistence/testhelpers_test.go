package persistence

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// directoryUserModel and directoryTenantModel stand in for the identity
// tables the usage history joins against.
type directoryUserModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID `gorm:"type:uuid"`
	Username    string
	DisplayName string
}

func (directoryUserModel) TableName() string { return "users" }

type directoryTenantModel struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code string
	Name string
}

func (directoryTenantModel) TableName() string { return "tenants" }

func migrateTestSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.AutoMigrate(
		&CouponModel{},
		&CouponUsageModel{},
		&SubscriptionPurchaseModel{},
		&directoryUserModel{},
		&directoryTenantModel{},
	))
}

// setupTestDB opens a private in-memory SQLite database with the schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)

	migrateTestSchema(t, db)
	return db
}

// setupSharedTestDB opens a named shared-cache in-memory database for tests
// that run transactions from several goroutines. SQLite allows one writer,
// so the pool is limited to a single connection and transactions queue.
func setupSharedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrateTestSchema(t, db)
	return db
}

// newMockGormDB returns a gorm DB over sqlmock speaking the postgres dialect
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}
