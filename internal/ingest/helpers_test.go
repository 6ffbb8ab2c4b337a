package ingest

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OpenNSW/tradestats/internal/trade/model"
)

// setupTestDB opens a gorm connection over sqlmock speaking the postgres dialect.
func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

// setupSQLite opens a migrated in-memory database. A single connection keeps
// every statement on the same in-memory database.
func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var sqlDB *sql.DB
	sqlDB, err = db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

// seedReferences inserts the countries and HS codes used across tests.
func seedReferences(t *testing.T, db *gorm.DB) (countries map[string]model.Country, hsCodes map[string]model.HSCode) {
	t.Helper()
	countries = map[string]model.Country{}
	for _, c := range []model.Country{
		{Name: "Kenya", Code: "KE"},
		{Name: "Uganda", Code: "UG"},
		{Name: "China", Code: "CN"},
	} {
		require.NoError(t, db.Create(&c).Error)
		countries[c.Code] = c
	}

	hsCodes = map[string]model.HSCode{}
	for _, h := range []model.HSCode{
		{Code: "4804.11.00", Description: "Unbleached kraftliner"},
		{Code: "0902.40.00", Description: "Black tea"},
	} {
		require.NoError(t, db.Create(&h).Error)
		hsCodes[h.Code] = h
	}
	return countries, hsCodes
}

// csvFile joins a header and rows into CSV text. Cells must not contain commas.
func csvFile(header []string, rows ...[]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(strings.Join(r, ","))
		b.WriteString("\n")
	}
	return b.String()
}
