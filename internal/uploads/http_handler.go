package uploads

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/OpenNSW/tradestats/internal/uploads/drivers"
)

type HTTPHandler struct {
	Service *ArchiveService
}

func NewHTTPHandler(service *ArchiveService) *HTTPHandler {
	return &HTTPHandler{Service: service}
}

// Download streams an archived spreadsheet. Routed as GET /uploads/*key.
func (h *HTTPHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	reader, info, err := h.Service.Open(c.Request.Context(), key)
	if errors.Is(err, drivers.ErrInvalidKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
		return
	}
	if err != nil {
		slog.DebugContext(c.Request.Context(), "archived upload not found", "key", key, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	defer reader.Close()

	name := info.OriginalName
	if name == "" {
		name = path.Base(key)
	}
	size := info.Size
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, info.ContentType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	})
}
