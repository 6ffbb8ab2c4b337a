package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/trade/model"
	"github.com/OpenNSW/tradestats/internal/uploads"
	"github.com/OpenNSW/tradestats/internal/uploads/drivers"
)

func newIngestionService(t *testing.T, db *gorm.DB, maxBytes int64) (*IngestionService, *uploads.ArchiveService) {
	t.Helper()
	driver, err := drivers.NewLocalFSDriver(t.TempDir(), "/api/v1/uploads")
	require.NoError(t, err)
	archive := uploads.NewArchiveService(driver)
	ingestor := ingest.NewIngestor(ingest.NewGormStore(db), nil)
	return NewIngestionService(db, ingestor, archive, maxBytes), archive
}

func TestIngestionService_IngestArchivesUpload(t *testing.T) {
	db := setupSQLite(t)
	seedReferences(t, db)
	svc, archive := newIngestionService(t, db, 1<<20)
	ctx := context.Background()

	content := csvFile(exportHeader,
		[]string{"Kraft paper", "4804.11.00", "2023", "5", "UG", "100", "KG", "5000"},
		[]string{"Kraft paper", "4804.11.00", "2023", "6", "ZZ", "100", "KG", "5000"},
	)
	summary, err := svc.Ingest(ctx, model.TradeFlowExport, "may.csv", strings.NewReader(content), int64(len(content)), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Skipped)
	require.True(t, strings.HasPrefix(summary.FileKey, "EXPORT/"), summary.FileKey)

	reader, info, err := archive.Open(ctx, summary.FileKey)
	require.NoError(t, err)
	archived, err := io.ReadAll(reader)
	reader.Close()
	require.NoError(t, err)
	assert.Equal(t, content, string(archived))
	assert.Equal(t, "may.csv", info.OriginalName)

	run, err := svc.GetRun(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, summary.FileKey, run.FileKey)
	assert.Equal(t, model.IngestionPhaseDone, run.Phase)
	require.Len(t, run.Issues, 1)
	assert.Equal(t, ingest.ReasonCountryNotFound, run.Issues[0].Reason)
}

func TestIngestionService_SchemaFailureIsRecorded(t *testing.T) {
	db := setupSQLite(t)
	seedReferences(t, db)
	svc, _ := newIngestionService(t, db, 0)
	ctx := context.Background()

	content := "SHORT_DESC,HS CODE,Year,Month,DESTINATION,QUANTITY,UNIT\n"
	summary, err := svc.Ingest(ctx, model.TradeFlowExport, "bad.csv", strings.NewReader(content), -1, "")
	assert.ErrorIs(t, err, ingest.ErrSchema)
	require.NotNil(t, summary)
	assert.Equal(t, model.IngestionPhaseFailed, summary.Phase)

	run, err := svc.GetRun(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.IngestionPhaseFailed, run.Phase)
	assert.Contains(t, run.Error, "FOB_VALUE")
}

func TestIngestionService_RejectsInput(t *testing.T) {
	db := setupSQLite(t)
	svc, _ := newIngestionService(t, db, 16)
	ctx := context.Background()

	big := strings.Repeat("x", 64)
	_, err := svc.Ingest(ctx, model.TradeFlowImport, "big.csv", strings.NewReader(big), int64(len(big)), "")
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	// Unknown size is checked while reading.
	_, err = svc.Ingest(ctx, model.TradeFlowImport, "big.csv", strings.NewReader(big), -1, "")
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	_, err = svc.Ingest(ctx, model.TradeFlow("TRANSIT"), "a.csv", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Ingest(ctx, model.TradeFlowExport, "", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// failingDriver refuses every write so archiving fails.
type failingDriver struct {
	uploads.StorageDriver
}

func (failingDriver) Save(ctx context.Context, key string, body io.Reader, info drivers.ObjectInfo) error {
	return errors.New("disk full")
}

func TestIngestionService_ArchiveFailureDoesNotBlockIngestion(t *testing.T) {
	db := setupSQLite(t)
	seedReferences(t, db)
	ingestor := ingest.NewIngestor(ingest.NewGormStore(db), nil)
	svc := NewIngestionService(db, ingestor, uploads.NewArchiveService(failingDriver{}), 0)

	content := csvFile(exportHeader, []string{"Kraft paper", "4804.11.00", "2023", "5", "UG", "100", "KG", "5000"})
	summary, err := svc.Ingest(context.Background(), model.TradeFlowExport, "may.csv", strings.NewReader(content), -1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Empty(t, summary.FileKey)
}

func TestIngestionService_ListRuns(t *testing.T) {
	db := setupSQLite(t)
	seedReferences(t, db)
	svc, _ := newIngestionService(t, db, 0)
	ctx := context.Background()

	exports := csvFile(exportHeader, []string{"Kraft paper", "4804.11.00", "2023", "5", "UG", "100", "KG", "5000"})
	first, err := svc.Ingest(ctx, model.TradeFlowExport, "exports.csv", strings.NewReader(exports), -1, "")
	require.NoError(t, err)
	imports := csvFile(importHeader)
	second, err := svc.Ingest(ctx, model.TradeFlowImport, "imports.csv", strings.NewReader(imports), -1, "")
	require.NoError(t, err)

	page, err := svc.ListRuns(ctx, model.IngestionRunFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.RunID, page.Items[0].ID)
	assert.Equal(t, first.RunID, page.Items[1].ID)

	flow := model.TradeFlowExport
	page, err = svc.ListRuns(ctx, model.IngestionRunFilter{Flow: &flow})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.RunID, page.Items[0].ID)

	bad := model.TradeFlow("TRANSIT")
	_, err = svc.ListRuns(ctx, model.IngestionRunFilter{Flow: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
