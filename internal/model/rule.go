package model

import (
	"fmt"
	"time"
)

// GuestRole is the synthetic role of shoppers without an account or role
const GuestRole = "guest"

// Date and time layouts used by storewide sale windows
const (
	SaleDateLayout = "2006-01-02"
	SaleTimeLayout = "15:04"
)

// QuantityBreak replaces the base adjustment of its scope once the
// line quantity reaches MinQty
type QuantityBreak struct {
	MinQty     int
	Adjustment Adjustment
}

// ProductRule is a product-specific override inside a Rule
type ProductRule struct {
	ProductID     int64
	Name          string
	Adjustment    Adjustment
	QuantityBreak QuantityBreak
	Hidden        bool
}

// CategoryRule is a category-specific override inside a Rule
type CategoryRule struct {
	CategoryID    int64
	Slug          string
	Name          string
	Adjustment    Adjustment
	QuantityBreak QuantityBreak
	Hidden        bool
	OnSale        bool
}

// StorewideSale is a time-boxed adjustment that supersedes every other
// part of the rule while its window is open
type StorewideSale struct {
	Adjustment Adjustment
	DateFrom   string
	DateTo     string
	TimeFrom   string
	TimeTo     string
}

// Rule is the pricing policy of a single role
type Rule struct {
	ID       uint
	RoleSlug string
	Version  int
	Active   bool

	GlobalAdjustment          Adjustment
	GeneralCategories         []int64
	GeneralCategoryAdjustment Adjustment
	CategoriesOnSale          bool

	CategoryRules []CategoryRule
	ProductRules  []ProductRule

	StorewideSale *StorewideSale
	Coupon        string
}

// FindProductRule returns the first product rule for productID
func (r *Rule) FindProductRule(productID int64) (*ProductRule, bool) {
	for i := range r.ProductRules {
		if r.ProductRules[i].ProductID == productID {
			return &r.ProductRules[i], true
		}
	}
	return nil, false
}

// HasGeneralCategory reports whether categoryID is in the general set
func (r *Rule) HasGeneralCategory(categoryID int64) bool {
	for _, id := range r.GeneralCategories {
		if id == categoryID {
			return true
		}
	}
	return false
}

// Hides reports whether the rule hides a product with the given
// identity and categories from shoppers of its role
func (r *Rule) Hides(productID int64, categoryIDs []int64) bool {
	if r == nil || !r.Active {
		return false
	}
	if pr, ok := r.FindProductRule(productID); ok && pr.Hidden {
		return true
	}
	for _, cr := range r.CategoryRules {
		if !cr.Hidden {
			continue
		}
		for _, id := range categoryIDs {
			if id == cr.CategoryID {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy so callers can merge into it without
// touching a cached instance
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	out := *r
	if r.GeneralCategories != nil {
		out.GeneralCategories = append([]int64(nil), r.GeneralCategories...)
	}
	if r.CategoryRules != nil {
		out.CategoryRules = append([]CategoryRule(nil), r.CategoryRules...)
	}
	if r.ProductRules != nil {
		out.ProductRules = append([]ProductRule(nil), r.ProductRules...)
	}
	if r.StorewideSale != nil {
		sale := *r.StorewideSale
		out.StorewideSale = &sale
	}
	return &out
}

// IsZero reports whether the sale carries neither an adjustment nor a window
func (s *StorewideSale) IsZero() bool {
	return s == nil || (s.Adjustment.IsZero() &&
		s.DateFrom == "" && s.DateTo == "" && s.TimeFrom == "" && s.TimeTo == "")
}

// Normalize puts the rule in the form its stored document decodes to.
// Amounts lose trailing zeros and an empty storewide sale becomes nil.
func (r *Rule) Normalize() {
	r.GlobalAdjustment = r.GlobalAdjustment.normalized()
	r.GeneralCategoryAdjustment = r.GeneralCategoryAdjustment.normalized()
	for i := range r.CategoryRules {
		cr := &r.CategoryRules[i]
		cr.Adjustment = cr.Adjustment.normalized()
		cr.QuantityBreak.Adjustment = cr.QuantityBreak.Adjustment.normalized()
	}
	for i := range r.ProductRules {
		pr := &r.ProductRules[i]
		pr.Adjustment = pr.Adjustment.normalized()
		pr.QuantityBreak.Adjustment = pr.QuantityBreak.Adjustment.normalized()
	}
	if r.StorewideSale.IsZero() {
		r.StorewideSale = nil
	} else {
		r.StorewideSale.Adjustment = r.StorewideSale.Adjustment.normalized()
	}
}

// ValidationError reports a rule field that cannot be stored
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the invariants a rule must satisfy before it is written
func (r *Rule) Validate() error {
	if r.RoleSlug == "" {
		return invalid("role", "role slug is required")
	}

	if err := validateAdjustment("reduce_regular", r.GlobalAdjustment, false); err != nil {
		return err
	}
	if err := validateAdjustment("reduce_categories", r.GeneralCategoryAdjustment, false); err != nil {
		return err
	}
	for _, id := range r.GeneralCategories {
		if id <= 0 {
			return invalid("categories", "category id must be positive, got %d", id)
		}
	}

	for i, cr := range r.CategoryRules {
		field := fmt.Sprintf("single_categories[%d]", i)
		if cr.CategoryID <= 0 {
			return invalid(field, "category id must be positive")
		}
		if err := validateAdjustment(field, cr.Adjustment, true); err != nil {
			return err
		}
		if err := validateQuantityBreak(field, cr.QuantityBreak); err != nil {
			return err
		}
	}

	for i, pr := range r.ProductRules {
		field := fmt.Sprintf("products[%d]", i)
		if pr.ProductID <= 0 {
			return invalid(field, "product id must be positive")
		}
		if err := validateAdjustment(field, pr.Adjustment, true); err != nil {
			return err
		}
		if err := validateQuantityBreak(field, pr.QuantityBreak); err != nil {
			return err
		}
	}

	if r.StorewideSale != nil {
		if err := r.StorewideSale.validate(); err != nil {
			return err
		}
	}

	return nil
}

func validateAdjustment(field string, a Adjustment, allowSet bool) error {
	if a.Kind == KindNone && a.Value.Valid {
		return invalid(field, "value given without an adjustment type")
	}
	if a.Kind == KindFixedSet && !allowSet {
		return invalid(field, "fixed_set is only allowed on product, category and quantity rules")
	}
	return nil
}

func validateQuantityBreak(field string, qb QuantityBreak) error {
	if qb.MinQty < 0 {
		return invalid(field, "min_qty must not be negative")
	}
	return validateAdjustment(field+".qty", qb.Adjustment, true)
}

func (s *StorewideSale) validate() error {
	switch s.Adjustment.Kind {
	case KindNone, KindPercent, KindFixed:
	default:
		return invalid("reduce_sale_type", "storewide sales only support percent and fixed")
	}
	if err := validateAdjustment("reduce_sale", s.Adjustment, false); err != nil {
		return err
	}

	var from, to time.Time
	var err error
	if s.DateFrom != "" {
		if from, err = time.Parse(SaleDateLayout, s.DateFrom); err != nil {
			return invalid("date_from", "expected YYYY-MM-DD")
		}
	}
	if s.DateTo != "" {
		if to, err = time.Parse(SaleDateLayout, s.DateTo); err != nil {
			return invalid("date_to", "expected YYYY-MM-DD")
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return invalid("date_to", "must not be before date_from")
	}
	if s.TimeFrom != "" {
		if _, err := time.Parse(SaleTimeLayout, s.TimeFrom); err != nil {
			return invalid("time_from", "expected HH:MM")
		}
	}
	if s.TimeTo != "" {
		if _, err := time.Parse(SaleTimeLayout, s.TimeTo); err != nil {
			return invalid("time_to", "expected HH:MM")
		}
	}
	return nil
}
