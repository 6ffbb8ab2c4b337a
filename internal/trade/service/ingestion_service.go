package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/trade/model"
	"github.com/OpenNSW/tradestats/internal/uploads"
	"github.com/OpenNSW/tradestats/utils"
)

// IngestionService accepts spreadsheet uploads, archives them and runs the ingestion pipeline.
type IngestionService struct {
	db       *gorm.DB
	ingestor *ingest.Ingestor
	archive  *uploads.ArchiveService // nil disables archiving
	maxBytes int64
}

// NewIngestionService creates an IngestionService. A maxBytes of zero or less
// disables the upload size check.
func NewIngestionService(db *gorm.DB, ingestor *ingest.Ingestor, archive *uploads.ArchiveService, maxBytes int64) *IngestionService {
	return &IngestionService{db: db, ingestor: ingestor, archive: archive, maxBytes: maxBytes}
}

// MaxUploadBytes returns the upload size limit, or 0 when uploads are unlimited.
func (s *IngestionService) MaxUploadBytes() int64 {
	return s.maxBytes
}

// Ingest reads an upload, archives its bytes and ingests them. It returns
// ingest.ErrRunInProgress instead of waiting for another run. An archive
// failure is logged and the run proceeds without a file key.
func (s *IngestionService) Ingest(ctx context.Context, flow model.TradeFlow, fileName string, r io.Reader, size int64, mime string) (*ingest.Summary, error) {
	if !flow.Valid() {
		return nil, fmt.Errorf("%w: unknown trade flow %q", ErrInvalidInput, flow)
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, ErrUploadTooLarge
	}

	data, err := s.readUpload(r)
	if err != nil {
		return nil, err
	}

	var (
		opts []ingest.RunOption
		key  string
	)
	if s.archive != nil {
		meta, err := s.archive.Store(ctx, flow, fileName, bytes.NewReader(data), int64(len(data)), mime)
		if err != nil {
			slog.ErrorContext(ctx, "failed to archive upload", "file", fileName, "flow", flow, "error", err)
		} else {
			key = meta.Key
			opts = append(opts, ingest.WithFileKey(key))
		}
	}

	summary, err := s.ingestor.TryIngestFile(ctx, flow, fileName, bytes.NewReader(data), opts...)
	if errors.Is(err, ingest.ErrRunInProgress) && key != "" {
		// No run references the archived copy.
		if rmErr := s.archive.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			slog.WarnContext(ctx, "failed to remove unused archive", "key", key, "error", rmErr)
		}
	}
	return summary, err
}

func (s *IngestionService) readUpload(r io.Reader) ([]byte, error) {
	if s.maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrUploadTooLarge
	}
	return data, nil
}

// ListRuns returns recorded ingestion runs, newest first.
func (s *IngestionService) ListRuns(ctx context.Context, filter model.IngestionRunFilter) (*model.Page[model.IngestionRun], error) {
	query := s.db.WithContext(ctx).Model(&model.IngestionRun{})
	if filter.Flow != nil {
		if !filter.Flow.Valid() {
			return nil, fmt.Errorf("%w: unknown trade flow %q", ErrInvalidInput, *filter.Flow)
		}
		query = query.Where("flow = ?", *filter.Flow)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count ingestion runs: %w", err)
	}

	offset, limit := utils.GetPaginationParams(filter.Offset, filter.Limit)
	var items []model.IngestionRun
	if err := query.Order("started_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve ingestion runs: %w", err)
	}
	return &model.Page[model.IngestionRun]{TotalCount: total, Items: items, Offset: offset, Limit: limit}, nil
}

// GetRun returns gorm.ErrRecordNotFound when id is unknown.
func (s *IngestionService) GetRun(ctx context.Context, id uuid.UUID) (*model.IngestionRun, error) {
	var run model.IngestionRun
	if err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}
