package handler

import (
	"net/http"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/middleware"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// PricingHandler prices products for the caller's role
type PricingHandler struct {
	pricingService service.PricingService
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(pricingService service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// Quote prices a list of product lines
func (h *PricingHandler) Quote(c *gin.Context) {
	var req model.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	quote, err := h.pricingService.Quote(c.Request.Context(), middleware.ActorOrGuest(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// PriceProduct prices a single product at ?quantity=
func (h *PricingHandler) PriceProduct(c *gin.Context) {
	productID, ok := int64Param(c, "product_id")
	if !ok {
		return
	}

	line, err := h.pricingService.PriceProduct(c.Request.Context(), middleware.ActorOrGuest(c), productID, intQuery(c, "quantity", 1))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, line)
}
