package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OpenNSW/tradestats/internal/database"
	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/trade/model"
)

func TestReferenceService_CountryCRUD(t *testing.T) {
	db := setupSQLite(t)
	svc := NewReferenceService(db)
	ctx := context.Background()

	country := &model.Country{Name: " Tanzania ", Code: "tz"}
	require.NoError(t, svc.CreateCountry(ctx, country))
	assert.Equal(t, "TZ", country.Code)
	assert.Equal(t, "Tanzania", country.Name)

	got, err := svc.GetCountry(ctx, country.ID)
	require.NoError(t, err)
	assert.Equal(t, "TZ", got.Code)

	err = svc.CreateCountry(ctx, &model.Country{Name: "Tanzania again", Code: "TZ"})
	assert.ErrorIs(t, err, ErrConflict)

	err = svc.CreateCountry(ctx, &model.Country{Name: "", Code: "XX"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.UpdateCountry(ctx, country.ID, model.Country{Name: "United Republic of Tanzania", Code: "TZ"})
	require.NoError(t, err)
	assert.Equal(t, "United Republic of Tanzania", updated.Name)

	_, err = svc.UpdateCountry(ctx, uuid.New(), model.Country{Name: "Nowhere", Code: "NW"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, svc.DeleteCountry(ctx, country.ID))
	_, err = svc.GetCountry(ctx, country.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, svc.DeleteCountry(ctx, country.ID), gorm.ErrRecordNotFound)
}


func TestReferenceService_DeleteReferencedCountry(t *testing.T) {
	db, err := database.NewSQLite(":memory:", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))

	countries, _ := seedReferences(t, db)
	seedFacts(t, db)
	svc := NewReferenceService(db)

	err = svc.DeleteCountry(ctx, countries["UG"].ID)
	assert.ErrorIs(t, err, ErrReferenced)
	assert.NotErrorIs(t, err, ErrConflict)
	_, err = svc.GetCountry(ctx, countries["UG"].ID)
	require.NoError(t, err)

	unused := &model.Country{Name: "Tanzania", Code: "TZ"}
	require.NoError(t, svc.CreateCountry(ctx, unused))
	require.NoError(t, svc.DeleteCountry(ctx, unused.ID))
}
func TestReferenceService_ListCountries(t *testing.T) {
	db := setupSQLite(t)
	seedReferences(t, db)
	svc := NewReferenceService(db)
	ctx := context.Background()

	page, err := svc.ListCountries(ctx, model.CountryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 20, page.Limit)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "China", page.Items[0].Name)

	page, err = svc.ListCountries(ctx, model.CountryFilter{NameContains: ptr("AND")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, "UG", page.Items[0].Code)

	page, err = svc.ListCountries(ctx, model.CountryFilter{Offset: ptr(1), Limit: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Kenya", page.Items[0].Name)
}

func TestReferenceService_SeedCountries(t *testing.T) {
	db := setupSQLite(t)
	svc := NewReferenceService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateCountry(ctx, &model.Country{Name: "Kenya (custom)", Code: "KE"}))

	created, err := svc.SeedCountries(ctx)
	require.NoError(t, err)
	assert.Greater(t, created, 200)

	var kenya model.Country
	require.NoError(t, db.First(&kenya, "code = ?", "KE").Error)
	assert.Equal(t, "Kenya (custom)", kenya.Name)

	var uganda model.Country
	require.NoError(t, db.First(&uganda, "code = ?", "UG").Error)

	again, err := svc.SeedCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again)
}

func TestReferenceService_HSCodes(t *testing.T) {
	db := setupSQLite(t)
	_, hsCodes := seedReferences(t, db)
	svc := NewReferenceService(db)
	ctx := context.Background()

	page, err := svc.ListHSCodes(ctx, model.HSCodeFilter{HSCodeStartsWith: ptr("4804")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, "4804.11.00", page.Items[0].Code)

	got, err := svc.GetHSCode(ctx, hsCodes["0902.40.00"].ID)
	require.NoError(t, err)
	assert.Equal(t, "Black tea", got.Description)

	_, err = svc.GetHSCode(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, svc.CreateHSCode(ctx, &model.HSCode{Code: "n/a"}), ErrInvalidInput)
	assert.ErrorIs(t, svc.CreateHSCode(ctx, &model.HSCode{Code: "4804.11.00"}), ErrConflict)
	require.NoError(t, svc.CreateHSCode(ctx, &model.HSCode{Code: " 8703.23.00 ", Description: "Cars"}))

	page, err = svc.ListHSCodes(ctx, model.HSCodeFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, "8703.23.00", page.Items[2].Code)
}

func TestReferenceService_ImportHSCodes(t *testing.T) {
	db := setupSQLite(t)
	seedReferences(t, db)
	svc := NewReferenceService(db)
	ctx := context.Background()

	sheet := csvFile([]string{"CODE", "DESCRIPTION"},
		[]string{"48041100", "Kraftliner in another notation"},
		[]string{"8703.23.00", "Cars"},
		[]string{"8703.23.00", "Cars repeated"},
		[]string{"n/a", "No code"},
		[]string{"1006.30.00", "Rice"},
	)
	summary, err := svc.ImportHSCodes(ctx, "hscodes.csv", strings.NewReader(sheet))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 2, summary.Skipped)
	require.Len(t, summary.Invalid, 1)
	assert.Equal(t, 5, summary.Invalid[0].Line)

	var count int64
	require.NoError(t, db.Model(&model.HSCode{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)

	_, err = svc.ImportHSCodes(ctx, "hscodes.csv", strings.NewReader("CODE\n0101.21.00\n"))
	var schemaErr *ingest.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"DESCRIPTION"}, schemaErr.Missing)
}

func TestReferenceService_ListProducts(t *testing.T) {
	db := setupSQLite(t)
	_, hsCodes := seedReferences(t, db)
	seedFacts(t, db)
	svc := NewReferenceService(db)
	ctx := context.Background()

	page, err := svc.ListProducts(ctx, model.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Black tea", page.Items[0].Name)
	require.NotNil(t, page.Items[0].HSCode)
	assert.Equal(t, "0902.40.00", page.Items[0].HSCode.Code)

	id := hsCodes["4804.11.00"].ID
	page, err = svc.ListProducts(ctx, model.ProductFilter{HSCodeID: &id})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Kraft paper", page.Items[0].Name)
}
