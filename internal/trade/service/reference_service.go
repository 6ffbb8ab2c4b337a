package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/biter777/countries"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/trade/model"
	"github.com/OpenNSW/tradestats/utils"
)

// Columns of an HS code reference sheet.
const (
	ColHSCode        = "CODE"
	ColHSDescription = "DESCRIPTION"
)

// HSCodeImportSummary tallies an HS code sheet import.
type HSCodeImportSummary struct {
	Created int              `json:"created"`
	Skipped int              `json:"skipped"` // Already present
	Invalid []model.RowIssue `json:"invalid"`
}

// ReferenceService manages countries, HS codes and products.
type ReferenceService struct {
	db *gorm.DB
}

func NewReferenceService(db *gorm.DB) *ReferenceService {
	return &ReferenceService{db: db}
}

// ListCountries returns countries ordered by name.
func (s *ReferenceService) ListCountries(ctx context.Context, filter model.CountryFilter) (*model.Page[model.Country], error) {
	query := s.db.WithContext(ctx).Model(&model.Country{})
	if filter.NameContains != nil && *filter.NameContains != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(*filter.NameContains)+"%")
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count countries: %w", err)
	}

	offset, limit := utils.GetPaginationParams(filter.Offset, filter.Limit)
	var items []model.Country
	if err := query.Order("name").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve countries: %w", err)
	}
	return &model.Page[model.Country]{TotalCount: total, Items: items, Offset: offset, Limit: limit}, nil
}

// GetCountry returns gorm.ErrRecordNotFound when id is unknown.
func (s *ReferenceService) GetCountry(ctx context.Context, id uuid.UUID) (*model.Country, error) {
	var country model.Country
	if err := s.db.WithContext(ctx).First(&country, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &country, nil
}

// CreateCountry stores a new country. The code is upper-cased.
func (s *ReferenceService) CreateCountry(ctx context.Context, country *model.Country) error {
	if err := normalizeCountry(country); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Create(country).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: country code %s", ErrConflict, country.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to create country: %w", err)
	}
	return nil
}

// UpdateCountry replaces the name and code of an existing country.
func (s *ReferenceService) UpdateCountry(ctx context.Context, id uuid.UUID, update model.Country) (*model.Country, error) {
	if err := normalizeCountry(&update); err != nil {
		return nil, err
	}
	country, err := s.GetCountry(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(country).Updates(map[string]any{"name": update.Name, "code": update.Code}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: country code %s", ErrConflict, update.Code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update country: %w", err)
	}
	return s.GetCountry(ctx, id)
}

// DeleteCountry removes a country. Countries referenced by facts cannot be deleted.
func (s *ReferenceService) DeleteCountry(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&model.Country{}, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: country is used by products or trade records", ErrReferenced)
	}
	if result.Error != nil {
		return fmt.Errorf("failed to delete country: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func normalizeCountry(c *model.Country) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Code = ingest.NormalizeCountry(c.Code)
	if c.Name == "" || c.Code == "" {
		return fmt.Errorf("%w: country name and code are required", ErrInvalidInput)
	}
	return nil
}

// SeedCountries inserts every ISO 3166 country that is not present yet and
// returns how many were added.
func (s *ReferenceService) SeedCountries(ctx context.Context) (int, error) {
	var existing []string
	if err := s.db.WithContext(ctx).Model(&model.Country{}).Pluck("code", &existing).Error; err != nil {
		return 0, fmt.Errorf("failed to retrieve country codes: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, code := range existing {
		have[ingest.NormalizeCountry(code)] = struct{}{}
	}

	var missing []model.Country
	for _, c := range countries.All() {
		code := c.Alpha2()
		if code == "" {
			continue
		}
		if _, ok := have[code]; ok {
			continue
		}
		have[code] = struct{}{}
		missing = append(missing, model.Country{Name: c.String(), Code: code})
	}
	if len(missing) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).CreateInBatches(&missing, 100).Error; err != nil {
		return 0, fmt.Errorf("failed to seed countries: %w", err)
	}
	slog.InfoContext(ctx, "countries seeded", "created", len(missing))
	return len(missing), nil
}

// ListHSCodes returns HS codes ordered by code.
func (s *ReferenceService) ListHSCodes(ctx context.Context, filter model.HSCodeFilter) (*model.Page[model.HSCode], error) {
	query := s.db.WithContext(ctx).Model(&model.HSCode{})
	if filter.HSCodeStartsWith != nil && *filter.HSCodeStartsWith != "" {
		query = query.Where("code LIKE ?", *filter.HSCodeStartsWith+"%")
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count HS codes: %w", err)
	}

	offset, limit := utils.GetPaginationParams(filter.Offset, filter.Limit)
	var items []model.HSCode
	if err := query.Order("code").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve HS codes: %w", err)
	}
	return &model.Page[model.HSCode]{TotalCount: total, Items: items, Offset: offset, Limit: limit}, nil
}

// GetHSCode returns gorm.ErrRecordNotFound when id is unknown.
func (s *ReferenceService) GetHSCode(ctx context.Context, id uuid.UUID) (*model.HSCode, error) {
	var hsCode model.HSCode
	if err := s.db.WithContext(ctx).First(&hsCode, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &hsCode, nil
}

// CreateHSCode stores a new HS code. The code must contain digits.
func (s *ReferenceService) CreateHSCode(ctx context.Context, hsCode *model.HSCode) error {
	hsCode.Code = strings.TrimSpace(hsCode.Code)
	hsCode.Description = strings.TrimSpace(hsCode.Description)
	if ingest.Normalize(hsCode.Code) == "" {
		return fmt.Errorf("%w: HS code %q has no digits", ErrInvalidInput, hsCode.Code)
	}
	err := s.db.WithContext(ctx).Create(hsCode).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: HS code %s", ErrConflict, hsCode.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to create HS code: %w", err)
	}
	return nil
}

// ImportHSCodes loads a CODE/DESCRIPTION sheet. Codes already present in any
// punctuation are skipped, as are repeats within the sheet.
func (s *ReferenceService) ImportHSCodes(ctx context.Context, fileName string, r io.Reader) (*HSCodeImportSummary, error) {
	sheet, err := ingest.ReadSheet(fileName, r)
	if err != nil {
		return nil, err
	}
	if missing := sheet.MissingColumns([]string{ColHSCode, ColHSDescription}); len(missing) > 0 {
		return nil, &ingest.SchemaError{Missing: missing}
	}

	var existing []string
	if err := s.db.WithContext(ctx).Model(&model.HSCode{}).Pluck("code", &existing).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve HS codes: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, code := range existing {
		have[ingest.Normalize(code)] = struct{}{}
	}

	summary := &HSCodeImportSummary{Invalid: []model.RowIssue{}}
	var fresh []model.HSCode
	for _, row := range sheet.Rows {
		code := row.Get(ColHSCode)
		key := ingest.Normalize(code)
		if key == "" {
			summary.Invalid = append(summary.Invalid, model.RowIssue{
				Line: row.Line, Status: model.RowStatusSkipped, Reason: ingest.ReasonInvalidValue, Detail: fmt.Sprintf("invalid %s %q", ColHSCode, code),
			})
			continue
		}
		if _, ok := have[key]; ok {
			summary.Skipped++
			continue
		}
		have[key] = struct{}{}
		fresh = append(fresh, model.HSCode{Code: code, Description: row.Get(ColHSDescription)})
	}

	if len(fresh) > 0 {
		if err := s.db.WithContext(ctx).CreateInBatches(&fresh, 200).Error; err != nil {
			return nil, fmt.Errorf("failed to import HS codes: %w", err)
		}
	}
	summary.Created = len(fresh)
	slog.InfoContext(ctx, "HS codes imported", "file", fileName, "created", summary.Created, "skipped", summary.Skipped, "invalid", len(summary.Invalid))
	return summary, nil
}

// ListProducts returns products with their HS code, ordered by name.
func (s *ReferenceService) ListProducts(ctx context.Context, filter model.ProductFilter) (*model.Page[model.Product], error) {
	query := s.db.WithContext(ctx).Model(&model.Product{})
	if filter.HSCodeID != nil {
		query = query.Where("hs_code_id = ?", *filter.HSCodeID)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	offset, limit := utils.GetPaginationParams(filter.Offset, filter.Limit)
	var items []model.Product
	if err := query.Preload("HSCode").Order("name").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return &model.Page[model.Product]{TotalCount: total, Items: items, Offset: offset, Limit: limit}, nil
}
