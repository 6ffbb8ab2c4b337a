package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OpenNSW/tradestats/internal/logging"
	"github.com/OpenNSW/tradestats/internal/trade/model"
)

// Summary describes a finished ingestion run.
type Summary struct {
	RunID           uuid.UUID            `json:"runId"`
	Flow            model.TradeFlow      `json:"flow"`
	FileName        string               `json:"fileName"`
	FileKey         string               `json:"fileKey,omitempty"`
	Phase           model.IngestionPhase `json:"phase"`
	TotalRows       int                  `json:"totalRows"`
	Inserted        int                  `json:"inserted"`
	Skipped         int                  `json:"skipped"`
	Errors          int                  `json:"errors"`
	ProductsCreated int                  `json:"productsCreated"`
	ProductsReused  int                  `json:"productsReused"`
	Issues          []model.RowIssue     `json:"issues"`
	Error           string               `json:"error,omitempty"`
	Duration        time.Duration        `json:"duration"`
}

// RunOption customizes a single ingestion run.
type RunOption func(*runOptions)

type runOptions struct {
	fileKey string
}

// WithFileKey links the run to the archived copy of the upload.
func WithFileKey(key string) RunOption {
	return func(o *runOptions) {
		o.fileKey = key
	}
}

var phaseTransitions = map[model.IngestionPhase][]model.IngestionPhase{
	model.IngestionPhaseValidating:        {model.IngestionPhaseResolvingProducts, model.IngestionPhaseFailed},
	model.IngestionPhaseResolvingProducts: {model.IngestionPhaseIngestingFacts},
	model.IngestionPhaseIngestingFacts:    {model.IngestionPhaseDone},
}

// session is the state of one run.
type session struct {
	run   *model.IngestionRun
	start time.Time
}

func (s *session) advance(to model.IngestionPhase) error {
	for _, allowed := range phaseTransitions[s.run.Phase] {
		if allowed == to {
			s.run.Phase = to
			return nil
		}
	}
	return fmt.Errorf("illegal ingestion phase transition %s -> %s", s.run.Phase, to)
}

func (s *session) add(out Outcome) {
	switch out.Status {
	case model.RowStatusInserted:
		s.run.Inserted++
		return
	case model.RowStatusSkipped:
		s.run.Skipped++
	default:
		s.run.Errors++
	}
	s.run.Issues = append(s.run.Issues, out.Issue())
}

func (s *session) summary() *Summary {
	r := s.run
	return &Summary{
		RunID:           r.ID,
		Flow:            r.Flow,
		FileName:        r.FileName,
		FileKey:         r.FileKey,
		Phase:           r.Phase,
		TotalRows:       r.TotalRows,
		Inserted:        r.Inserted,
		Skipped:         r.Skipped,
		Errors:          r.Errors,
		ProductsCreated: r.ProductsCreated,
		ProductsReused:  r.ProductsReused,
		Issues:          r.Issues,
		Error:           r.Error,
		Duration:        r.FinishedAt.Sub(s.start),
	}
}

// Ingestor runs spreadsheet ingestions one at a time.
type Ingestor struct {
	store  Store
	logger *slog.Logger
	mu     sync.Mutex
	now    func() time.Time
}

// NewIngestor creates an Ingestor. With a nil logger each run logs through
// logging.FromContext, so runs started by a request carry its request ID.
func NewIngestor(store Store, logger *slog.Logger) *Ingestor {
	return &Ingestor{store: store, logger: logger, now: time.Now}
}

func (in *Ingestor) runLogger(ctx context.Context) *slog.Logger {
	if in.logger != nil {
		return in.logger
	}
	return logging.FromContext(ctx)
}

// IngestFile parses, validates and ingests one uploaded file, waiting for
// any run already in progress. A schema or parse failure returns the failed
// run's summary together with the error; row-level problems never fail the run.
func (in *Ingestor) IngestFile(ctx context.Context, flow model.TradeFlow, fileName string, r io.Reader, opts ...RunOption) (*Summary, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.ingest(ctx, flow, fileName, r, opts)
}

// TryIngestFile is IngestFile but returns ErrRunInProgress instead of waiting.
func (in *Ingestor) TryIngestFile(ctx context.Context, flow model.TradeFlow, fileName string, r io.Reader, opts ...RunOption) (*Summary, error) {
	if !in.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer in.mu.Unlock()
	return in.ingest(ctx, flow, fileName, r, opts)
}

func (in *Ingestor) ingest(ctx context.Context, flow model.TradeFlow, fileName string, r io.Reader, opts []RunOption) (*Summary, error) {
	if !flow.Valid() {
		return nil, fmt.Errorf("unknown trade flow %q", flow)
	}
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	runID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}
	s := &session{
		start: in.now(),
		run: &model.IngestionRun{
			BaseModel: model.BaseModel{ID: runID},
			Flow:      flow,
			FileName:  fileName,
			FileKey:   o.fileKey,
			Phase:     model.IngestionPhaseValidating,
			Issues:    []model.RowIssue{},
		},
	}
	s.run.StartedAt = s.start.UTC()
	logger := in.runLogger(ctx).With("run_id", runID, "flow", flow, "file", fileName)
	logger.Info("ingestion started")

	sheet, refs, err := in.validate(ctx, flow, fileName, r)
	if err != nil {
		if terr := s.advance(model.IngestionPhaseFailed); terr != nil {
			return nil, terr
		}
		s.run.Error = err.Error()
		in.finish(ctx, logger, s)
		logger.Error("ingestion failed", "error", err)
		return s.summary(), err
	}
	s.run.TotalRows = len(sheet.Rows)

	if err := s.advance(model.IngestionPhaseResolvingProducts); err != nil {
		return nil, err
	}
	products := NewProductDeduplicator(in.store)
	productErrs := in.resolveProducts(ctx, logger, flow, sheet, refs, products)
	s.run.ProductsCreated, s.run.ProductsReused = products.Stats()

	if err := s.advance(model.IngestionPhaseIngestingFacts); err != nil {
		return nil, err
	}
	rows := NewRowIngestor(refs, products, in.store, s.run.RunRef())
	for _, row := range sheet.Rows {
		var out Outcome
		switch {
		case ctx.Err() != nil:
			out = failed(row.Line, ReasonCancelled, ctx.Err())
		case productErrs[row.Line] != nil:
			out = failed(row.Line, ReasonPersistence, productErrs[row.Line])
		case flow == model.TradeFlowImport:
			out = rows.IngestImport(ctx, row)
		default:
			out = rows.IngestExport(ctx, row)
		}
		s.add(out)
		if out.Status != model.RowStatusInserted {
			logger.Warn("row not ingested",
				"line", out.Line, "status", out.Status, "reason", out.Reason, "detail", out.Detail)
		}
	}

	if err := s.advance(model.IngestionPhaseDone); err != nil {
		return nil, err
	}
	in.finish(ctx, logger, s)
	logger.Info("ingestion finished",
		"rows", s.run.TotalRows,
		"inserted", s.run.Inserted,
		"skipped", s.run.Skipped,
		"errors", s.run.Errors,
		"products_created", s.run.ProductsCreated,
		"products_reused", s.run.ProductsReused)
	return s.summary(), nil
}

// validate parses the file, checks its columns and loads the reference maps.
// Nothing is written before it succeeds.
func (in *Ingestor) validate(ctx context.Context, flow model.TradeFlow, fileName string, r io.Reader) (*Sheet, *References, error) {
	sheet, err := ReadSheet(fileName, r)
	if err != nil {
		return nil, nil, err
	}
	if missing := sheet.MissingColumns(RequiredColumns(flow)); len(missing) > 0 {
		return nil, nil, &SchemaError{Missing: missing}
	}
	refs, err := LoadReferences(ctx, in.store)
	if err != nil {
		return nil, nil, err
	}
	return sheet, refs, nil
}

// resolveProducts creates or reuses one product per distinct (description, HS code)
// pair. It returns the storage errors keyed by line; rows whose HS code or
// description does not resolve are left for the fact pass to skip.
func (in *Ingestor) resolveProducts(ctx context.Context, logger *slog.Logger, flow model.TradeFlow, sheet *Sheet, refs *References, products *ProductDeduplicator) map[int]error {
	descCol, hsCol := productColumns(flow)
	failures := make(map[productKey]error)
	errs := make(map[int]error)

	for _, row := range sheet.Rows {
		if ctx.Err() != nil {
			break
		}
		hsCodeID, ok := refs.HSCode(row.Get(hsCol))
		if !ok {
			continue
		}
		name := row.Get(descCol)
		key := productKey{name: normalizeName(name), hsCodeID: hsCodeID}
		if err, seen := failures[key]; seen {
			errs[row.Line] = err
			continue
		}

		_, err := products.GetOrCreate(ctx, name, hsCodeID)
		var unresolved *UnresolvedReferenceError
		if err == nil || errors.As(err, &unresolved) {
			continue
		}
		logger.Warn("failed to resolve product", "line", row.Line, "product", key.name, "error", err)
		failures[key] = err
		errs[row.Line] = err
	}
	return errs
}

// finish stamps the run and records it. The record is written even when ctx
// has been cancelled; a recording failure is logged only.
func (in *Ingestor) finish(ctx context.Context, logger *slog.Logger, s *session) {
	s.run.FinishedAt = in.now().UTC()
	if err := in.store.RecordRun(context.WithoutCancel(ctx), s.run); err != nil {
		logger.Error("failed to record ingestion run", "error", err)
	}
}
