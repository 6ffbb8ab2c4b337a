package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel defines the common identity and timestamp columns of every persisted entity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// BeforeCreate is a GORM hook that is triggered before a new record is created.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID, err = uuid.NewRandom()
		if err != nil {
			return
		}
	}
	now := time.Now().UTC()
	base.CreatedAt = now
	base.UpdatedAt = now
	return
}

// BeforeUpdate is a GORM hook that is triggered before an existing record is updated.
func (base *BaseModel) BeforeUpdate(tx *gorm.DB) (err error) {
	base.UpdatedAt = time.Now().UTC()
	return
}

// TradeFlow represents the direction of a trade record.
type TradeFlow string

const (
	TradeFlowImport TradeFlow = "IMPORT"
	TradeFlowExport TradeFlow = "EXPORT"
)

// Valid reports whether f is a known trade flow.
func (f TradeFlow) Valid() bool {
	return f == TradeFlowImport || f == TradeFlowExport
}

// All returns every model that is auto-migrated at start-up, in dependency order.
func All() []any {
	return []any{
		&Country{},
		&HSCode{},
		&Product{},
		&IngestionRun{},
		&ExportFact{},
		&ImportFact{},
	}
}
