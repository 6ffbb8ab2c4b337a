package uploads

import (
	"time"

	"github.com/google/uuid"

	"github.com/OpenNSW/tradestats/internal/trade/model"
)

// Content types of the accepted spreadsheet formats.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

// FileMetadata describes an archived spreadsheet upload
type FileMetadata struct {
	ID         uuid.UUID       `json:"id"`
	Flow       model.TradeFlow `json:"flow"`
	Name       string          `json:"name"`
	Key        string          `json:"key"`
	URL        string          `json:"url"`
	Size       int64           `json:"size"`
	MimeType   string          `json:"mimeType"`
	ArchivedAt time.Time       `json:"archivedAt"`
}
