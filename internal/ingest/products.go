package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/OpenNSW/tradestats/internal/trade/model"
)

type productKey struct {
	name     string
	hsCodeID uuid.UUID
}

// ProductDeduplicator resolves (name, hs_code_id) pairs to a single product,
// creating the product on first sight. Resolutions are memoized for the
// lifetime of the deduplicator, which is one ingestion run.
type ProductDeduplicator struct {
	store   ProductStore
	memo    map[productKey]uuid.UUID
	created int
	reused  int
}

// NewProductDeduplicator creates a deduplicator with an empty memo.
func NewProductDeduplicator(store ProductStore) *ProductDeduplicator {
	return &ProductDeduplicator{
		store: store,
		memo:  make(map[productKey]uuid.UUID),
	}
}

// GetOrCreate returns the product id for the pair, creating the product if absent.
// A concurrent insert of the same pair is detected through the storage uniqueness
// constraint and resolved by re-fetching the winner's row.
func (d *ProductDeduplicator) GetOrCreate(ctx context.Context, name string, hsCodeID uuid.UUID) (uuid.UUID, error) {
	key := productKey{name: normalizeName(name), hsCodeID: hsCodeID}
	if key.name == "" {
		return uuid.Nil, &UnresolvedReferenceError{Reference: ReasonProductNotFound, Value: name}
	}
	if id, ok := d.memo[key]; ok {
		return id, nil
	}

	existing, err := d.store.FindProduct(ctx, key.name, hsCodeID)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		d.memo[key] = existing.ID
		d.reused++
		return existing.ID, nil
	}

	product := &model.Product{Name: key.name, HSCodeID: hsCodeID}
	err = d.store.CreateProduct(ctx, product)
	if errors.Is(err, ErrDuplicateProduct) {
		existing, err = d.store.FindProduct(ctx, key.name, hsCodeID)
		if err != nil {
			return uuid.Nil, err
		}
		if existing == nil {
			return uuid.Nil, fmt.Errorf("product %q reported as duplicate but not found", key.name)
		}
		d.memo[key] = existing.ID
		d.reused++
		return existing.ID, nil
	}
	if err != nil {
		return uuid.Nil, &PersistenceError{Op: "create product", Err: err}
	}

	d.memo[key] = product.ID
	d.created++
	return product.ID, nil
}

// Lookup returns a memoized product id without touching storage.
func (d *ProductDeduplicator) Lookup(name string, hsCodeID uuid.UUID) (uuid.UUID, bool) {
	id, ok := d.memo[productKey{name: normalizeName(name), hsCodeID: hsCodeID}]
	return id, ok
}

// Stats returns how many products were created and how many existing ones were reused.
func (d *ProductDeduplicator) Stats() (created, reused int) {
	return d.created, d.reused
}
