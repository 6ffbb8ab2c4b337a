package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenNSW/tradestats/internal/trade/model"
)

// factFilter reads the shared fact query parameters:
// year, countryCode, hsCodeStartsWith, offset, limit.
func factFilter(c *gin.Context) (model.FactFilter, bool) {
	filter := model.FactFilter{
		CountryCode:      queryString(c, "countryCode"),
		HSCodeStartsWith: queryString(c, "hsCodeStartsWith"),
	}
	var ok bool
	if filter.Year, ok = queryInt(c, "year"); !ok {
		return filter, false
	}
	if filter.Limit, ok = queryInt(c, "limit"); !ok {
		return filter, false
	}
	if filter.Offset, ok = queryInt(c, "offset"); !ok {
		return filter, false
	}
	return filter, true
}

func (tr *TradeRouter) HandleListExports(c *gin.Context) {
	filter, ok := factFilter(c)
	if !ok {
		return
	}
	page, err := tr.facts.ListExports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// HandleListImports filters countryCode on the origin country.
func (tr *TradeRouter) HandleListImports(c *gin.Context) {
	filter, ok := factFilter(c)
	if !ok {
		return
	}
	page, err := tr.facts.ListImports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (tr *TradeRouter) HandleListTaxRecords(c *gin.Context) {
	filter, ok := factFilter(c)
	if !ok {
		return
	}
	page, err := tr.facts.ListTaxRecords(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (tr *TradeRouter) HandleExportReport(c *gin.Context) {
	filter, ok := factFilter(c)
	if !ok {
		return
	}
	page, err := tr.facts.ExportReport(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (tr *TradeRouter) HandleImportReport(c *gin.Context) {
	filter, ok := factFilter(c)
	if !ok {
		return
	}
	page, err := tr.facts.ImportReport(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
