package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExportFact is one export transaction line.
type ExportFact struct {
	BaseModel
	FOBValue       decimal.Decimal `gorm:"type:numeric(20,4);column:fob_value;not null" json:"fobValue"`
	Quantity       decimal.Decimal `gorm:"type:numeric(20,4);column:quantity;not null" json:"quantity"`
	Unit           string          `gorm:"type:varchar(50);column:unit" json:"unit"`
	ExportDate     time.Time       `gorm:"type:date;column:export_date;not null;index" json:"exportDate"` // Day is always 1
	DestinationID  uuid.UUID       `gorm:"type:uuid;column:destination_id;not null;index" json:"destinationId"`
	HSCodeID       uuid.UUID       `gorm:"type:uuid;column:hs_code_id;not null;index" json:"hsCodeId"`
	ProductID      uuid.UUID       `gorm:"type:uuid;column:product_id;not null;index" json:"productId"`
	IngestionRunID *uuid.UUID      `gorm:"type:uuid;column:ingestion_run_id;index" json:"ingestionRunId,omitempty"`

	Destination *Country `gorm:"foreignKey:DestinationID" json:"-"`
	HSCode      *HSCode  `gorm:"foreignKey:HSCodeID" json:"-"`
	Product     *Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (e *ExportFact) TableName() string {
	return "export_facts"
}

// ImportTaxes are the duties and levies assessed on an import line.
type ImportTaxes struct {
	ImportVAT              decimal.Decimal `gorm:"type:numeric(20,4);column:import_vat;not null" json:"importVat"`
	ImportDuty             decimal.Decimal `gorm:"type:numeric(20,4);column:import_duty;not null" json:"importDuty"`
	ExciseDuty             decimal.Decimal `gorm:"type:numeric(20,4);column:excise_duty;not null" json:"exciseDuty"`
	ExportDuty             decimal.Decimal `gorm:"type:numeric(20,4);column:export_duty;not null" json:"exportDuty"`
	ImportDeclarationFee   decimal.Decimal `gorm:"type:numeric(20,4);column:import_declaration_fee;not null" json:"importDeclarationFee"`
	RailwayDevelopmentLevy decimal.Decimal `gorm:"type:numeric(20,4);column:railway_development_levy;not null" json:"railwayDevelopmentLevy"`
}

// ImportFact is one import entry line with its assessed taxes.
type ImportFact struct {
	BaseModel
	RegDate        time.Time       `gorm:"type:date;column:reg_date;not null;index" json:"regDate"`
	EntryNumber    string          `gorm:"type:varchar(100);column:entry_number;index" json:"entryNumber"`
	EntryStatus    string          `gorm:"type:varchar(50);column:entry_status" json:"entryStatus"`
	Quantity       decimal.Decimal `gorm:"type:numeric(20,4);column:quantity;not null" json:"quantity"`
	DischargePort  string          `gorm:"type:varchar(255);column:discharge_port" json:"dischargePort"`
	OriginID       uuid.UUID       `gorm:"type:uuid;column:origin_id;not null;index" json:"originId"`
	DestinationID  uuid.UUID       `gorm:"type:uuid;column:destination_id;not null;index" json:"destinationId"`
	ProductID      uuid.UUID       `gorm:"type:uuid;column:product_id;not null;index" json:"productId"`
	HSCodeID       uuid.UUID       `gorm:"type:uuid;column:hs_code_id;not null;index" json:"hsCodeId"`
	IngestionRunID *uuid.UUID      `gorm:"type:uuid;column:ingestion_run_id;index" json:"ingestionRunId,omitempty"`
	ImportTaxes    `gorm:"embedded"`

	Origin      *Country `gorm:"foreignKey:OriginID" json:"-"`
	Destination *Country `gorm:"foreignKey:DestinationID" json:"-"`
	HSCode      *HSCode  `gorm:"foreignKey:HSCodeID" json:"-"`
	Product     *Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (i *ImportFact) TableName() string {
	return "import_facts"
}

// TaxRecord is the tax view of a single import line. ID is the import fact ID.
type TaxRecord struct {
	ID                     uuid.UUID       `json:"id"`
	ImportDuty             decimal.Decimal `json:"importDuty"`
	ExciseDuty             decimal.Decimal `json:"exciseDuty"`
	ExportDuty             decimal.Decimal `json:"exportDuty"`
	ExportRate             decimal.Decimal `json:"exportRate"`
	ImportDeclarationFee   decimal.Decimal `json:"importDeclarationFee"`
	RailwayDevelopmentLevy decimal.Decimal `json:"railwayDevelopmentLevy"`
}

// TaxRecord projects the tax attributes of the import line.
func (i *ImportFact) TaxRecord() TaxRecord {
	return TaxRecord{
		ID:                     i.ID,
		ImportDuty:             i.ImportDuty,
		ExciseDuty:             i.ExciseDuty,
		ExportDuty:             i.ExportDuty,
		ExportRate:             decimal.Zero,
		ImportDeclarationFee:   i.ImportDeclarationFee,
		RailwayDevelopmentLevy: i.RailwayDevelopmentLevy,
	}
}

// FactFilter narrows fact listings and reports.
type FactFilter struct {
	Year             *int    `json:"year,omitempty"`
	CountryCode      *string `json:"countryCode,omitempty"` // Destination for exports, origin for imports
	HSCodeStartsWith *string `json:"hsCodeStartsWith,omitempty"`
	Offset           *int    `json:"offset,omitempty"`
	Limit            *int    `json:"limit,omitempty"`
}

// ExportReportRow is an export line joined with its product, tariff and destination.
type ExportReportRow struct {
	ID              uuid.UUID       `gorm:"column:id" json:"id"`
	ExportDate      time.Time       `gorm:"column:export_date" json:"exportDate"`
	ProductName     string          `gorm:"column:product_name" json:"productName"`
	HSCode          string          `gorm:"column:hs_code" json:"hsCode"`
	HSDescription   string          `gorm:"column:hs_description" json:"hsDescription"`
	DestinationCode string          `gorm:"column:destination_code" json:"destinationCode"`
	DestinationName string          `gorm:"column:destination_name" json:"destinationName"`
	Quantity        decimal.Decimal `gorm:"column:quantity" json:"quantity"`
	Unit            string          `gorm:"column:unit" json:"unit"`
	FOBValue        decimal.Decimal `gorm:"column:fob_value" json:"fobValue"`
}

// ImportReportRow is an import line joined with its product, tariff, countries and taxes.
type ImportReportRow struct {
	ID              uuid.UUID       `gorm:"column:id" json:"id"`
	RegDate         time.Time       `gorm:"column:reg_date" json:"regDate"`
	EntryNumber     string          `gorm:"column:entry_number" json:"entryNumber"`
	EntryStatus     string          `gorm:"column:entry_status" json:"entryStatus"`
	ProductName     string          `gorm:"column:product_name" json:"productName"`
	HSCode          string          `gorm:"column:hs_code" json:"hsCode"`
	HSDescription   string          `gorm:"column:hs_description" json:"hsDescription"`
	OriginCode      string          `gorm:"column:origin_code" json:"originCode"`
	OriginName      string          `gorm:"column:origin_name" json:"originName"`
	DestinationCode string          `gorm:"column:destination_code" json:"destinationCode"`
	DestinationName string          `gorm:"column:destination_name" json:"destinationName"`
	DischargePort   string          `gorm:"column:discharge_port" json:"dischargePort"`
	Quantity        decimal.Decimal `gorm:"column:quantity" json:"quantity"`
	ImportTaxes
}
