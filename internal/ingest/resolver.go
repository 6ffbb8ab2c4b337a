package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// References maps normalized reference codes to their identifiers.
// It is built once per run and is read-only afterwards.
type References struct {
	countries map[string]uuid.UUID
	hsCodes   map[string]uuid.UUID
}

// LoadReferences scans the country and HS code tables once.
func LoadReferences(ctx context.Context, src ReferenceSource) (*References, error) {
	countries, err := src.ListCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load countries: %w", err)
	}
	hsCodes, err := src.ListHSCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load HS codes: %w", err)
	}

	refs := &References{
		countries: make(map[string]uuid.UUID, len(countries)),
		hsCodes:   make(map[string]uuid.UUID, len(hsCodes)),
	}
	for _, c := range countries {
		if key := NormalizeCountry(c.Code); key != "" {
			refs.countries[key] = c.ID
		}
	}
	for _, h := range hsCodes {
		// Empty keys are never inserted so that codes without digits stay unresolvable.
		if key := Normalize(h.Code); key != "" {
			refs.hsCodes[key] = h.ID
		}
	}
	return refs, nil
}

// Country resolves a country code.
func (r *References) Country(code string) (uuid.UUID, bool) {
	key := NormalizeCountry(code)
	if key == "" {
		return uuid.Nil, false
	}
	id, ok := r.countries[key]
	return id, ok
}

// HSCode resolves an HS code in any punctuation.
func (r *References) HSCode(code string) (uuid.UUID, bool) {
	key := Normalize(code)
	if key == "" {
		return uuid.Nil, false
	}
	id, ok := r.hsCodes[key]
	return id, ok
}

// Size returns the number of countries and HS codes loaded.
func (r *References) Size() (countries, hsCodes int) {
	return len(r.countries), len(r.hsCodes)
}
