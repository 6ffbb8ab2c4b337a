package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/trade/model"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func seedReferences(t *testing.T, db *gorm.DB) (map[string]model.Country, map[string]model.HSCode) {
	t.Helper()
	countries := map[string]model.Country{}
	for _, c := range []model.Country{
		{Name: "Kenya", Code: "KE"},
		{Name: "Uganda", Code: "UG"},
		{Name: "China", Code: "CN"},
	} {
		require.NoError(t, db.Create(&c).Error)
		countries[c.Code] = c
	}

	hsCodes := map[string]model.HSCode{}
	for _, h := range []model.HSCode{
		{Code: "4804.11.00", Description: "Unbleached kraftliner"},
		{Code: "0902.40.00", Description: "Black tea"},
	} {
		require.NoError(t, db.Create(&h).Error)
		hsCodes[h.Code] = h
	}
	return countries, hsCodes
}

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

var exportHeader = []string{"SHORT_DESC", "HS CODE", "Year", "Month", "DESTINATION", "QUANTITY", "UNIT", "FOB_VALUE"}

var importHeader = []string{
	"YEAR", "MONTH", "ENTRY_NUMBER", "ENTRYSTATUS", "REG_DATE", "QUANTITY", "PLACE_OF_DISCHARGE",
	"ORIGIN_COUNTRY_CODE", "COUNTRY_OF_DESTINATION", "HSCODE", "GOOD_DESCRIPTION",
	"IMPORT_VAT", "IMPORT_DUTY", "EXCISE", "EXPORT_DUTY", "IDF", "RDL",
}

// seedFacts ingests a small export and import history spanning two years.
func seedFacts(t *testing.T, db *gorm.DB) {
	t.Helper()
	in := ingest.NewIngestor(ingest.NewGormStore(db), nil)
	ctx := context.Background()

	exports := csvFile(exportHeader,
		[]string{"Kraft paper", "4804.11.00", "2022", "12", "UG", "50", "KG", "2500"},
		[]string{"Kraft paper", "4804.11.00", "2023", "5", "UG", "100", "KG", "5000"},
		[]string{"Black tea", "0902.40.00", "2023", "6", "CN", "20", "KG", "800"},
	)
	summary, err := in.IngestFile(ctx, model.TradeFlowExport, "exports.csv", strings.NewReader(exports))
	require.NoError(t, err)
	require.Equal(t, 3, summary.Inserted)

	imports := csvFile(importHeader,
		[]string{"2023", "3", "E-001", "PAID", "2023-03-14", "10", "Mombasa", "CN", "KE", "4804.11.00", "Kraft paper", "160", "250", "0", "0", "35", "20"},
		[]string{"2023", "4", "E-002", "PAID", "2023-04-02", "5", "Mombasa", "UG", "KE", "0902.40.00", "Black tea", "80", "100", "12", "0", "17.5", "10"},
	)
	summary, err = in.IngestFile(ctx, model.TradeFlowImport, "imports.csv", strings.NewReader(imports))
	require.NoError(t, err)
	require.Equal(t, 2, summary.Inserted)
}

func ptr[T any](v T) *T {
	return &v
}
