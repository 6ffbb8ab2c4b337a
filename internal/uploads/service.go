package uploads

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OpenNSW/tradestats/internal/trade/model"
	"github.com/OpenNSW/tradestats/internal/uploads/drivers"
)

// ArchiveService keeps the original bytes of every ingested spreadsheet.
// Keys have the form <flow>/<uuid><ext>.
type ArchiveService struct {
	Driver StorageDriver
}

func NewArchiveService(driver StorageDriver) *ArchiveService {
	return &ArchiveService{Driver: driver}
}

// Store saves an uploaded spreadsheet and returns its metadata.
func (s *ArchiveService) Store(ctx context.Context, flow model.TradeFlow, filename string, reader io.Reader, size int64, mime string) (*FileMetadata, error) {
	if !flow.Valid() {
		return nil, fmt.Errorf("unknown trade flow %q", flow)
	}
	mime = contentTypeFor(filename, mime)
	id := uuid.New()
	key := ObjectKey(flow, id, filename)

	info := drivers.ObjectInfo{ContentType: mime, OriginalName: filepath.Base(filename), Size: size}
	if err := s.Driver.Save(ctx, key, reader, info); err != nil {
		return nil, fmt.Errorf("storage driver failed: %w", err)
	}

	url, err := s.Driver.GenerateURL(ctx, key, 0)
	if err != nil {
		if delErr := s.Driver.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to cleanup orphaned upload", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to generate URL: %w", err)
	}

	slog.InfoContext(ctx, "upload archived", "id", id, "key", key, "flow", flow)
	return &FileMetadata{
		ID:         id,
		Flow:       flow,
		Name:       filename,
		Key:        key,
		URL:        url,
		Size:       size,
		MimeType:   mime,
		ArchivedAt: time.Now().UTC(),
	}, nil
}

// Open retrieves an archived spreadsheet and its recorded info.
func (s *ArchiveService) Open(ctx context.Context, key string) (io.ReadCloser, drivers.ObjectInfo, error) {
	return s.Driver.Get(ctx, key)
}

// Remove deletes an archived spreadsheet.
func (s *ArchiveService) Remove(ctx context.Context, key string) error {
	return s.Driver.Delete(ctx, key)
}

// ObjectKey builds the archive key of an upload.
func ObjectKey(flow model.TradeFlow, id uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s%s", flow, id, strings.ToLower(filepath.Ext(filename)))
}

// contentTypeFor prefers the extension over client-supplied types, which
// browsers often report as application/octet-stream for spreadsheets.
func contentTypeFor(filename, mime string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return ContentTypeXLSX
	case ".csv":
		return ContentTypeCSV
	}
	if mime == "" {
		return "application/octet-stream"
	}
	return mime
}
