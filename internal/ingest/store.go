package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenNSW/tradestats/internal/trade/model"
)

// ReferenceSource provides the full reference tables.
type ReferenceSource interface {
	ListCountries(ctx context.Context) ([]model.Country, error)
	ListHSCodes(ctx context.Context) ([]model.HSCode, error)
}

// ProductStore finds and creates products.
type ProductStore interface {
	// FindProduct returns nil, nil when no product matches.
	FindProduct(ctx context.Context, name string, hsCodeID uuid.UUID) (*model.Product, error)
	// CreateProduct returns ErrDuplicateProduct when the (name, hs_code_id) pair exists.
	CreateProduct(ctx context.Context, product *model.Product) error
}

// FactStore persists fact rows. Each call is atomic.
type FactStore interface {
	InsertExport(ctx context.Context, fact *model.ExportFact) error
	InsertImport(ctx context.Context, fact *model.ImportFact) error
}

// RunRecorder persists finished ingestion runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *model.IngestionRun) error
}

// Store is the persistence collaborator of the ingestion pipeline.
type Store interface {
	ReferenceSource
	ProductStore
	FactStore
	RunRecorder
}

// GormStore implements Store on a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by db. The connection should be opened
// with TranslateError enabled so that unique violations surface as gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListCountries(ctx context.Context) ([]model.Country, error) {
	var countries []model.Country
	if err := s.db.WithContext(ctx).Find(&countries).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve countries: %w", err)
	}
	return countries, nil
}

func (s *GormStore) ListHSCodes(ctx context.Context) ([]model.HSCode, error) {
	var hsCodes []model.HSCode
	if err := s.db.WithContext(ctx).Find(&hsCodes).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve HS codes: %w", err)
	}
	return hsCodes, nil
}

func (s *GormStore) FindProduct(ctx context.Context, name string, hsCodeID uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := s.db.WithContext(ctx).
		Where("name = ? AND hs_code_id = ?", name, hsCodeID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %q: %w", name, err)
	}
	return &product, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, product *model.Product) error {
	err := s.db.WithContext(ctx).Create(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateProduct
	}
	if err != nil {
		return fmt.Errorf("failed to create product %q: %w", product.Name, err)
	}
	return nil
}

func (s *GormStore) InsertExport(ctx context.Context, fact *model.ExportFact) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fact).Error; err != nil {
			return fmt.Errorf("failed to insert export fact: %w", err)
		}
		return nil
	})
}

func (s *GormStore) InsertImport(ctx context.Context, fact *model.ImportFact) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fact).Error; err != nil {
			return fmt.Errorf("failed to insert import fact: %w", err)
		}
		return nil
	})
}

func (s *GormStore) RecordRun(ctx context.Context, run *model.IngestionRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record ingestion run: %w", err)
	}
	return nil
}
