package model

// Copy types accepted by POST /rules/:id/copy
const (
	CopyProducts   = "products"
	CopyCategories = "categories"
	CopyAll        = "all"
)

// RuleProductsRequest replaces the product rules of a rule
type RuleProductsRequest struct {
	Version  int           `json:"version"`
	Products []ProductRule `json:"products"`
}

// RuleCategoriesRequest replaces the category rules of a rule
type RuleCategoriesRequest struct {
	Version    int            `json:"version"`
	Categories []CategoryRule `json:"single_categories"`
}

// RuleCopyRequest copies part of one rule into another
type RuleCopyRequest struct {
	TargetRuleID uint   `json:"target_rule_id" binding:"required"`
	Type         string `json:"type" binding:"required"`
}

// ProductsFromCategoryRequest adds a product rule for every product of a
// category, all sharing one adjustment
type ProductsFromCategoryRequest struct {
	Version     int            `json:"version"`
	CategoryID  int64          `json:"category_id" binding:"required"`
	AdjustType  AdjustmentKind `json:"adjust_type"`
	AdjustValue string         `json:"adjust_value"`
}
