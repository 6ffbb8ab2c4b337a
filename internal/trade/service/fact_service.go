package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/trade/model"
	"github.com/OpenNSW/tradestats/utils"
)

// FactService lists trade facts and builds the joined reports.
type FactService struct {
	db *gorm.DB
}

func NewFactService(db *gorm.DB) *FactService {
	return &FactService{db: db}
}

// normalizedHSCode strips the separators Normalize removes from reference codes.
const normalizedHSCode = "REPLACE(REPLACE(REPLACE(code, '.', ''), ' ', ''), '-', '')"

// applyFactFilter narrows a fact query. dateCol and countryCol are qualified
// with alias when the query joins other tables.
func applyFactFilter(query *gorm.DB, filter model.FactFilter, alias, dateCol, countryCol string) (*gorm.DB, error) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	if filter.Year != nil {
		if *filter.Year < 1 || *filter.Year > 9999 {
			return nil, fmt.Errorf("%w: year %d", ErrInvalidInput, *filter.Year)
		}
		from := time.Date(*filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		query = query.Where(col(dateCol)+" >= ? AND "+col(dateCol)+" < ?", from, from.AddDate(1, 0, 0))
	}
	if filter.CountryCode != nil && *filter.CountryCode != "" {
		code := ingest.NormalizeCountry(*filter.CountryCode)
		query = query.Where(col(countryCol)+" IN (SELECT id FROM countries WHERE code = ?)", code)
	}
	if filter.HSCodeStartsWith != nil && *filter.HSCodeStartsWith != "" {
		prefix := ingest.Normalize(*filter.HSCodeStartsWith)
		if prefix == "" {
			return nil, fmt.Errorf("%w: HS code prefix %q has no digits", ErrInvalidInput, *filter.HSCodeStartsWith)
		}
		query = query.Where(col("hs_code_id")+" IN (SELECT id FROM hs_codes WHERE "+normalizedHSCode+" LIKE ?)", prefix+"%")
	}
	return query, nil
}

// ListExports returns export facts, most recent period first.
func (s *FactService) ListExports(ctx context.Context, filter model.FactFilter) (*model.Page[model.ExportFact], error) {
	query, err := applyFactFilter(s.db.WithContext(ctx).Model(&model.ExportFact{}), filter, "", "export_date", "destination_id")
	if err != nil {
		return nil, err
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count export facts: %w", err)
	}

	offset, limit := utils.GetPaginationParams(filter.Offset, filter.Limit)
	var items []model.ExportFact
	if err := query.Order("export_date DESC, created_at").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve export facts: %w", err)
	}
	return &model.Page[model.ExportFact]{TotalCount: total, Items: items, Offset: offset, Limit: limit}, nil
}

// ListImports returns import facts, most recent registration first.
func (s *FactService) ListImports(ctx context.Context, filter model.FactFilter) (*model.Page[model.ImportFact], error) {
	query, err := applyFactFilter(s.db.WithContext(ctx).Model(&model.ImportFact{}), filter, "", "reg_date", "origin_id")
	if err != nil {
		return nil, err
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count import facts: %w", err)
	}

	offset, limit := utils.GetPaginationParams(filter.Offset, filter.Limit)
	var items []model.ImportFact
	if err := query.Order("reg_date DESC, created_at").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve import facts: %w", err)
	}
	return &model.Page[model.ImportFact]{TotalCount: total, Items: items, Offset: offset, Limit: limit}, nil
}

// ListTaxRecords returns the tax view of import facts.
func (s *FactService) ListTaxRecords(ctx context.Context, filter model.FactFilter) (*model.Page[model.TaxRecord], error) {
	imports, err := s.ListImports(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]model.TaxRecord, 0, len(imports.Items))
	for i := range imports.Items {
		items = append(items, imports.Items[i].TaxRecord())
	}
	return &model.Page[model.TaxRecord]{TotalCount: imports.TotalCount, Items: items, Offset: imports.Offset, Limit: imports.Limit}, nil
}

// ExportReport joins export facts with product, tariff and destination.
// CountryCode filters on the destination.
func (s *FactService) ExportReport(ctx context.Context, filter model.FactFilter) (*model.Page[model.ExportReportRow], error) {
	base, err := applyFactFilter(s.db.WithContext(ctx).Table("export_facts AS e"), filter, "e", "export_date", "destination_id")
	if err != nil {
		return nil, err
	}

	base = base.Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count export report rows: %w", err)
	}

	offset, limit := utils.GetPaginationParams(filter.Offset, filter.Limit)
	items := []model.ExportReportRow{}
	err = base.
		Select(`e.id AS id, e.export_date AS export_date, p.name AS product_name,
			h.code AS hs_code, h.description AS hs_description,
			d.code AS destination_code, d.name AS destination_name,
			e.quantity AS quantity, e.unit AS unit, e.fob_value AS fob_value`).
		Joins("JOIN products p ON p.id = e.product_id").
		Joins("JOIN hs_codes h ON h.id = e.hs_code_id").
		Joins("JOIN countries d ON d.id = e.destination_id").
		Order("e.export_date DESC, h.code, p.name").
		Offset(offset).Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build export report: %w", err)
	}
	return &model.Page[model.ExportReportRow]{TotalCount: total, Items: items, Offset: offset, Limit: limit}, nil
}

// ImportReport joins import facts with product, tariff, both countries and taxes.
// CountryCode filters on the origin.
func (s *FactService) ImportReport(ctx context.Context, filter model.FactFilter) (*model.Page[model.ImportReportRow], error) {
	base, err := applyFactFilter(s.db.WithContext(ctx).Table("import_facts AS i"), filter, "i", "reg_date", "origin_id")
	if err != nil {
		return nil, err
	}

	base = base.Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count import report rows: %w", err)
	}

	offset, limit := utils.GetPaginationParams(filter.Offset, filter.Limit)
	items := []model.ImportReportRow{}
	err = base.
		Select(`i.id AS id, i.reg_date AS reg_date, i.entry_number AS entry_number, i.entry_status AS entry_status,
			p.name AS product_name, h.code AS hs_code, h.description AS hs_description,
			o.code AS origin_code, o.name AS origin_name, d.code AS destination_code, d.name AS destination_name,
			i.discharge_port AS discharge_port, i.quantity AS quantity,
			i.import_vat AS import_vat, i.import_duty AS import_duty, i.excise_duty AS excise_duty,
			i.export_duty AS export_duty, i.import_declaration_fee AS import_declaration_fee,
			i.railway_development_levy AS railway_development_levy`).
		Joins("JOIN products p ON p.id = i.product_id").
		Joins("JOIN hs_codes h ON h.id = i.hs_code_id").
		Joins("JOIN countries o ON o.id = i.origin_id").
		Joins("JOIN countries d ON d.id = i.destination_id").
		Order("i.reg_date DESC, h.code, p.name").
		Offset(offset).Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build import report: %w", err)
	}
	return &model.Page[model.ImportReportRow]{TotalCount: total, Items: items, Offset: offset, Limit: limit}, nil
}
