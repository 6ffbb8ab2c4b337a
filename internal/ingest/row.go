package ingest

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/OpenNSW/tradestats/internal/trade/model"
)

// Outcome is the result of ingesting a single row.
type Outcome struct {
	Line     int
	Status   model.RowStatus
	Reason   string
	Detail   string
	RecordID uuid.UUID // Set when Status is inserted
}

// Issue converts a non-inserted outcome into its persisted form.
func (o Outcome) Issue() model.RowIssue {
	return model.RowIssue{Line: o.Line, Status: o.Status, Reason: o.Reason, Detail: o.Detail}
}

func inserted(line int, id uuid.UUID) Outcome {
	return Outcome{Line: line, Status: model.RowStatusInserted, RecordID: id}
}

func skipped(line int, err error) Outcome {
	out := Outcome{Line: line, Status: model.RowStatusSkipped, Detail: err.Error()}
	var unresolved *UnresolvedReferenceError
	if errors.As(err, &unresolved) {
		out.Reason = unresolved.Reference
	} else {
		out.Reason = ReasonInvalidValue
	}
	return out
}

func failed(line int, reason string, err error) Outcome {
	return Outcome{Line: line, Status: model.RowStatusError, Reason: reason, Detail: err.Error()}
}

// RowIngestor turns decoded rows into persisted facts. Products must already
// have been resolved into the deduplicator's memo by the product pass.
type RowIngestor struct {
	refs     *References
	products *ProductDeduplicator
	facts    FactStore
	runID    *uuid.UUID
}

// NewRowIngestor creates a row ingestor for one run.
func NewRowIngestor(refs *References, products *ProductDeduplicator, facts FactStore, runID *uuid.UUID) *RowIngestor {
	return &RowIngestor{refs: refs, products: products, facts: facts, runID: runID}
}

// IngestExport resolves and persists one export row. References are resolved
// before the typed columns are decoded.
func (ri *RowIngestor) IngestExport(ctx context.Context, row Row) Outcome {
	hsCode := row.Get(ColExportHSCode)
	hsCodeID, ok := ri.refs.HSCode(hsCode)
	if !ok {
		return skipped(row.Line, &UnresolvedReferenceError{Reference: ReasonHSCodeNotFound, Value: hsCode})
	}
	destination := row.Get(ColExportDestination)
	destinationID, ok := ri.refs.Country(destination)
	if !ok {
		return skipped(row.Line, &UnresolvedReferenceError{Reference: ReasonCountryNotFound, Value: destination})
	}
	description := row.Get(ColExportDescription)
	productID, ok := ri.products.Lookup(description, hsCodeID)
	if !ok {
		return skipped(row.Line, &UnresolvedReferenceError{Reference: ReasonProductNotFound, Value: description})
	}

	rec, err := DecodeExport(row)
	if err != nil {
		return skipped(row.Line, err)
	}

	fact := &model.ExportFact{
		FOBValue:       rec.FOBValue,
		Quantity:       rec.Quantity,
		Unit:           rec.Unit,
		ExportDate:     rec.Period,
		DestinationID:  destinationID,
		HSCodeID:       hsCodeID,
		ProductID:      productID,
		IngestionRunID: ri.runID,
	}
	if err := ri.facts.InsertExport(ctx, fact); err != nil {
		return failed(row.Line, ReasonPersistence, &PersistenceError{Op: "insert export fact", Err: err})
	}
	return inserted(row.Line, fact.ID)
}

// IngestImport resolves and persists one import row with its taxes.
func (ri *RowIngestor) IngestImport(ctx context.Context, row Row) Outcome {
	hsCode := row.Get(ColImportHSCode)
	hsCodeID, ok := ri.refs.HSCode(hsCode)
	if !ok {
		return skipped(row.Line, &UnresolvedReferenceError{Reference: ReasonHSCodeNotFound, Value: hsCode})
	}
	origin := row.Get(ColImportOrigin)
	originID, ok := ri.refs.Country(origin)
	if !ok {
		return skipped(row.Line, &UnresolvedReferenceError{Reference: ReasonCountryNotFound, Value: origin})
	}
	destination := row.Get(ColImportDestination)
	destinationID, ok := ri.refs.Country(destination)
	if !ok {
		return skipped(row.Line, &UnresolvedReferenceError{Reference: ReasonCountryNotFound, Value: destination})
	}
	description := row.Get(ColImportDescription)
	productID, ok := ri.products.Lookup(description, hsCodeID)
	if !ok {
		return skipped(row.Line, &UnresolvedReferenceError{Reference: ReasonProductNotFound, Value: description})
	}

	rec, err := DecodeImport(row)
	if err != nil {
		return skipped(row.Line, err)
	}

	fact := &model.ImportFact{
		RegDate:        rec.RegDate,
		EntryNumber:    rec.EntryNumber,
		EntryStatus:    rec.EntryStatus,
		Quantity:       rec.Quantity,
		DischargePort:  rec.DischargePort,
		OriginID:       originID,
		DestinationID:  destinationID,
		ProductID:      productID,
		HSCodeID:       hsCodeID,
		IngestionRunID: ri.runID,
		ImportTaxes:    rec.Taxes,
	}
	if err := ri.facts.InsertImport(ctx, fact); err != nil {
		return failed(row.Line, ReasonPersistence, &PersistenceError{Op: "insert import fact", Err: err})
	}
	return inserted(row.Line, fact.ID)
}
