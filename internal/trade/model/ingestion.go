package model

import (
	"time"

	"github.com/google/uuid"
)

// IngestionPhase is the lifecycle state of an ingestion run.
type IngestionPhase string

const (
	IngestionPhaseValidating        IngestionPhase = "VALIDATING"
	IngestionPhaseResolvingProducts IngestionPhase = "RESOLVING_PRODUCTS"
	IngestionPhaseIngestingFacts    IngestionPhase = "INGESTING_FACTS"
	IngestionPhaseDone              IngestionPhase = "DONE"
	IngestionPhaseFailed            IngestionPhase = "FAILED"
)

// RowStatus is the result of processing one spreadsheet row.
type RowStatus string

const (
	RowStatusInserted RowStatus = "INSERTED"
	RowStatusSkipped  RowStatus = "SKIPPED"
	RowStatusError    RowStatus = "ERROR"
)

// RowIssue records why a row was not inserted.
type RowIssue struct {
	Line   int       `json:"line"` // 1-based spreadsheet line, header is line 1
	Status RowStatus `json:"status"`
	Reason string    `json:"reason"`
	Detail string    `json:"detail,omitempty"`
}

// IngestionRun is the persisted record of one processed upload.
type IngestionRun struct {
	BaseModel
	Flow            TradeFlow      `gorm:"type:varchar(20);column:flow;not null;index" json:"flow"`
	FileName        string         `gorm:"type:varchar(512);column:file_name;not null" json:"fileName"`
	FileKey         string         `gorm:"type:varchar(512);column:file_key" json:"fileKey,omitempty"` // Archive key, empty when archiving is off
	Phase           IngestionPhase `gorm:"type:varchar(30);column:phase;not null" json:"phase"`
	TotalRows       int            `gorm:"column:total_rows;not null" json:"totalRows"`
	Inserted        int            `gorm:"column:inserted;not null" json:"inserted"`
	Skipped         int            `gorm:"column:skipped;not null" json:"skipped"`
	Errors          int            `gorm:"column:errors;not null" json:"errors"`
	ProductsCreated int            `gorm:"column:products_created;not null" json:"productsCreated"`
	ProductsReused  int            `gorm:"column:products_reused;not null" json:"productsReused"`
	Issues          []RowIssue     `gorm:"type:jsonb;column:issues;serializer:json" json:"issues"`
	Error           string         `gorm:"type:text;column:error" json:"error,omitempty"`
	StartedAt       time.Time      `gorm:"column:started_at;not null" json:"startedAt"`
	FinishedAt      time.Time      `gorm:"column:finished_at;not null" json:"finishedAt"`
}

func (r *IngestionRun) TableName() string {
	return "ingestion_runs"
}

// IngestionRunFilter narrows run history listings.
type IngestionRunFilter struct {
	Flow   *TradeFlow `json:"flow,omitempty"`
	Offset *int       `json:"offset,omitempty"`
	Limit  *int       `json:"limit,omitempty"`
}

// RunRef is a lightweight pointer to a run, used when facts link back to their upload.
func (r *IngestionRun) RunRef() *uuid.UUID {
	if r == nil || r.ID == uuid.Nil {
		return nil
	}
	id := r.ID
	return &id
}
