package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenNSW/tradestats/internal/config"
	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/middleware"
	"github.com/OpenNSW/tradestats/internal/trade/service"
	"github.com/OpenNSW/tradestats/internal/uploads"
)

// TradeRouter serves the reference data, fact, report and ingestion endpoints.
type TradeRouter struct {
	refs      *service.ReferenceService
	facts     *service.FactService
	ingestion *service.IngestionService
	downloads *uploads.HTTPHandler // nil when archiving is off
}

func NewTradeRouter(refs *service.ReferenceService, facts *service.FactService, ingestion *service.IngestionService, downloads *uploads.HTTPHandler) *TradeRouter {
	return &TradeRouter{
		refs:      refs,
		facts:     facts,
		ingestion: ingestion,
		downloads: downloads,
	}
}

// Register mounts every route under r, which is normally the /api/v1 group.
func (tr *TradeRouter) Register(r gin.IRouter) {
	r.GET("/countries", tr.HandleListCountries)
	r.POST("/countries", tr.HandleCreateCountry)
	r.GET("/countries/:id", tr.HandleGetCountry)
	r.PUT("/countries/:id", tr.HandleUpdateCountry)
	r.DELETE("/countries/:id", tr.HandleDeleteCountry)

	r.GET("/hscodes", tr.HandleListHSCodes)
	r.POST("/hscodes", tr.HandleCreateHSCode)
	r.GET("/hscodes/:id", tr.HandleGetHSCode)

	r.GET("/products", tr.HandleListProducts)

	r.GET("/exports", tr.HandleListExports)
	r.GET("/imports", tr.HandleListImports)
	r.GET("/taxes", tr.HandleListTaxRecords)
	r.GET("/reports/exports", tr.HandleExportReport)
	r.GET("/reports/imports", tr.HandleImportReport)

	r.POST("/ingestions/exports", tr.HandleIngestExports)
	r.POST("/ingestions/imports", tr.HandleIngestImports)
	r.GET("/ingestions", tr.HandleListRuns)
	r.GET("/ingestions/:id", tr.HandleGetRun)

	if tr.downloads != nil {
		r.GET("/uploads/*key", tr.downloads.Download)
	}
}

// NewEngine builds the gin engine with recovery, request logging, CORS and
// the health endpoint. healthCheck may be nil.
func NewEngine(cfg *config.Config, tr *TradeRouter, healthCheck func(ctx context.Context) error) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(&cfg.CORS))
	if cfg.Ingest.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = cfg.Ingest.MaxUploadBytes
	}

	engine.GET("/health", func(c *gin.Context) {
		if healthCheck != nil {
			if err := healthCheck(c.Request.Context()); err != nil {
				slog.ErrorContext(c.Request.Context(), "health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	tr.Register(engine.Group("/api/v1"))
	return engine
}

// queryInt parses an optional integer query parameter. It writes a 400 and
// returns false when the value is not an integer.
func queryInt(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid '%s' query parameter, must be an integer", name)})
		return nil, false
	}
	return &v, true
}

func queryString(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

// pathID parses the :id path parameter. It writes a 400 and returns false on failure.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid id: %v", err)})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service and ingestion errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var schemaErr *ingest.SchemaError
	var parseErr *ingest.ParseError
	switch {
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": schemaErr.Error(), "missingColumns": schemaErr.Missing})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": parseErr.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrReferenced), errors.Is(err, ingest.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
