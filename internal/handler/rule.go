package handler

import (
	"net/http"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/middleware"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

// RuleHandler serves the pricing rule administration API
type RuleHandler struct {
	ruleService service.RuleService
}

// NewRuleHandler creates a new rule handler
func NewRuleHandler(ruleService service.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// ListRules returns every stored rule
func (h *RuleHandler) ListRules(c *gin.Context) {
	rules, err := h.ruleService.ListRules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if rules == nil {
		rules = []*model.Rule{}
	}

	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"total": len(rules),
	})
}

// GetRule returns one rule document
func (h *RuleHandler) GetRule(c *gin.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	rule, err := h.ruleService.GetRule(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// CreateRule stores a new rule for a role
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var req model.Rule
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), &req, actorName(middleware.ActorOrGuest(c)))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// UpdateRule replaces the top-level settings of a rule
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	var req model.Rule
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), id, &req, actorName(middleware.ActorOrGuest(c)))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule removes a rule
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	if err := h.ruleService.DeleteRule(c.Request.Context(), id, actorName(middleware.ActorOrGuest(c))); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted successfully"})
}

// CopyRule copies product and/or category rules into another rule
func (h *RuleHandler) CopyRule(c *gin.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	var req model.RuleCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rule, err := h.ruleService.CopyRule(c.Request.Context(), id, &req, actorName(middleware.ActorOrGuest(c)))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// ReplaceProducts stores a new list of product rules
func (h *RuleHandler) ReplaceProducts(c *gin.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	var req model.RuleProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rule, err := h.ruleService.ReplaceProducts(c.Request.Context(), id, &req, actorName(middleware.ActorOrGuest(c)))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// ReplaceCategories stores a new list of category rules
func (h *RuleHandler) ReplaceCategories(c *gin.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	var req model.RuleCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rule, err := h.ruleService.ReplaceCategories(c.Request.Context(), id, &req, actorName(middleware.ActorOrGuest(c)))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// AddProductsFromCategory appends product rules for a whole category
func (h *RuleHandler) AddProductsFromCategory(c *gin.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	var req model.ProductsFromCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.CategoryID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category_id is required"})
		return
	}

	rule, err := h.ruleService.AddProductsFromCategory(c.Request.Context(), id, &req, actorName(middleware.ActorOrGuest(c)))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// Explain resolves one product against the rule
func (h *RuleHandler) Explain(c *gin.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	productID := int64(intQuery(c, "product_id", 0))
	if productID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}

	explanation, err := h.ruleService.Explain(c.Request.Context(), id, productID, intQuery(c, "quantity", 1))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, explanation)
}

// GetHistory returns the audit trail of a rule, newest first
func (h *RuleHandler) GetHistory(c *gin.Context) {
	id, ok := ruleIDParam(c)
	if !ok {
		return
	}

	changes, err := h.ruleService.GetHistory(c.Request.Context(), id, intQuery(c, "limit", defaultHistoryLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	if changes == nil {
		changes = []model.RuleChange{}
	}

	c.JSON(http.StatusOK, gin.H{
		"rule_id": id,
		"changes": changes,
		"total":   len(changes),
	})
}
