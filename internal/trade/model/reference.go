package model

import "github.com/google/uuid"

// Country is ISO 3166 reference data. Code holds the alpha-2 code.
type Country struct {
	BaseModel
	Name string `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Code string `gorm:"type:varchar(8);column:code;not null;uniqueIndex" json:"code"`
}

func (c *Country) TableName() string {
	return "countries"
}

// HSCode represents the Harmonized System Code used for classifying traded products.
type HSCode struct {
	BaseModel
	Code        string `gorm:"type:varchar(50);column:code;not null;uniqueIndex" json:"code"` // Dotted form, e.g. 4804.11.00
	Description string `gorm:"type:text;column:description" json:"description"`
}

func (h *HSCode) TableName() string {
	return "hs_codes"
}

// Product is a traded good as described on customs records.
// At most one product exists per (name, hs_code_id).
type Product struct {
	BaseModel
	Name     string    `gorm:"type:varchar(512);column:name;not null;uniqueIndex:idx_products_name_hs_code" json:"name"`
	HSCodeID uuid.UUID `gorm:"type:uuid;column:hs_code_id;not null;uniqueIndex:idx_products_name_hs_code" json:"hsCodeId"`
	HSCode   *HSCode   `gorm:"foreignKey:HSCodeID" json:"hsCode,omitempty"`
}

func (p *Product) TableName() string {
	return "products"
}

// HSCodeFilter will be used when querying as batch
type HSCodeFilter struct {
	HSCodeStartsWith *string `json:"hsCodeStartsWith,omitempty"`
	Offset           *int    `json:"offset,omitempty"`
	Limit            *int    `json:"limit,omitempty"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	HSCodeID *uuid.UUID `json:"hsCodeId,omitempty"`
	Offset   *int       `json:"offset,omitempty"`
	Limit    *int       `json:"limit,omitempty"`
}

// Page is a generic paginated result.
type Page[T any] struct {
	TotalCount int64 `json:"totalCount"`
	Items      []T   `json:"items"`
	Offset     int   `json:"offset"`
	Limit      int   `json:"limit"`
}

// CountryFilter narrows country listings.
type CountryFilter struct {
	NameContains *string `json:"nameContains,omitempty"`
	Offset       *int    `json:"offset,omitempty"`
	Limit        *int    `json:"limit,omitempty"`
}
