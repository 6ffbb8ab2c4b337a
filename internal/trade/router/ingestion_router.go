package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/trade/model"
	"github.com/OpenNSW/tradestats/internal/trade/service"
)

// multipartOverhead is the room left for multipart boundaries and part
// headers on top of the file size limit.
const multipartOverhead = 64 << 10

// HandleIngestExports handles POST /ingestions/exports with a multipart "file" field.
func (tr *TradeRouter) HandleIngestExports(c *gin.Context) {
	tr.handleIngest(c, model.TradeFlowExport)
}

// HandleIngestImports handles POST /ingestions/imports with a multipart "file" field.
func (tr *TradeRouter) HandleIngestImports(c *gin.Context) {
	tr.handleIngest(c, model.TradeFlowImport)
}

func (tr *TradeRouter) handleIngest(c *gin.Context, flow model.TradeFlow) {
	if limit := tr.ingestion.MaxUploadBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, service.ErrUploadTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing 'file' form field: %v", err)})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to read upload: %v", err)})
		return
	}
	defer file.Close()

	summary, err := tr.ingestion.Ingest(c.Request.Context(), flow, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		// A failed run is still recorded; return its summary with the error.
		var schemaErr *ingest.SchemaError
		if errors.As(err, &schemaErr) && summary != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":          schemaErr.Error(),
				"missingColumns": schemaErr.Missing,
				"summary":        summary,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// HandleListRuns handles GET /ingestions
// Optional Query Filters: flow, offset, limit
func (tr *TradeRouter) HandleListRuns(c *gin.Context) {
	var filter model.IngestionRunFilter
	if raw := c.Query("flow"); raw != "" {
		flow := model.TradeFlow(raw)
		filter.Flow = &flow
	}
	var ok bool
	if filter.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}

	page, err := tr.ingestion.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (tr *TradeRouter) HandleGetRun(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	run, err := tr.ingestion.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
