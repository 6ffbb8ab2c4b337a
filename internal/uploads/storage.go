package uploads

import (
	"context"
	"io"
	"time"

	"github.com/OpenNSW/tradestats/internal/uploads/drivers"
)

// StorageDriver defines how archived spreadsheets are kept in binary storage.
type StorageDriver interface {
	// Save writes the content under key along with its descriptive info.
	Save(ctx context.Context, key string, body io.Reader, info drivers.ObjectInfo) error

	// Get streams the content back together with the info recorded at save time.
	Get(ctx context.Context, key string) (io.ReadCloser, drivers.ObjectInfo, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// GenerateURL returns a link clients can download the object from.
	GenerateURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
