package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OpenNSW/tradestats/internal/trade/model"
)

type countryRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

type hsCodeRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

// HandleListCountries handles GET /countries
// Optional Query Filters: name, offset, limit
func (tr *TradeRouter) HandleListCountries(c *gin.Context) {
	filter := model.CountryFilter{NameContains: queryString(c, "name")}
	var ok bool
	if filter.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}

	page, err := tr.refs.ListCountries(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (tr *TradeRouter) HandleGetCountry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	country, err := tr.refs.GetCountry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, country)
}

func (tr *TradeRouter) HandleCreateCountry(c *gin.Context) {
	var req countryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	country := &model.Country{Name: req.Name, Code: req.Code}
	if err := tr.refs.CreateCountry(c.Request.Context(), country); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, country)
}

func (tr *TradeRouter) HandleUpdateCountry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req countryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	country, err := tr.refs.UpdateCountry(c.Request.Context(), id, model.Country{Name: req.Name, Code: req.Code})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, country)
}

func (tr *TradeRouter) HandleDeleteCountry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := tr.refs.DeleteCountry(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleListHSCodes handles GET /hscodes
// Optional Query Filters: hsCodeStartsWith, offset, limit
func (tr *TradeRouter) HandleListHSCodes(c *gin.Context) {
	filter := model.HSCodeFilter{HSCodeStartsWith: queryString(c, "hsCodeStartsWith")}
	var ok bool
	if filter.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}

	page, err := tr.refs.ListHSCodes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (tr *TradeRouter) HandleGetHSCode(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	hsCode, err := tr.refs.GetHSCode(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hsCode)
}

func (tr *TradeRouter) HandleCreateHSCode(c *gin.Context) {
	var req hsCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hsCode := &model.HSCode{Code: req.Code, Description: req.Description}
	if err := tr.refs.CreateHSCode(c.Request.Context(), hsCode); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hsCode)
}

// HandleListProducts handles GET /products
// Optional Query Filters: hsCodeId, offset, limit
func (tr *TradeRouter) HandleListProducts(c *gin.Context) {
	var filter model.ProductFilter
	if raw := c.Query("hsCodeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'hsCodeId' query parameter, must be a UUID"})
			return
		}
		filter.HSCodeID = &id
	}
	var ok bool
	if filter.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}

	page, err := tr.refs.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
