package pricing

import (
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Scope names the part of a rule that produced a price
type Scope string

const (
	ScopeNone            Scope = "none"
	ScopeStorewideSale   Scope = "storewide_sale"
	ScopeProduct         Scope = "product"
	ScopeCategory        Scope = "category"
	ScopeGeneralCategory Scope = "general_category"
	ScopeGlobal          Scope = "global"
)

// Product is what the resolver needs to know about a catalog item
type Product struct {
	ID           int64
	CategoryIDs  []int64
	RegularPrice decimal.Decimal
	SalePrice    decimal.NullDecimal
}

// NewProduct builds the resolver view of p. Variations take their
// categories from parent when one is given.
func NewProduct(p *model.Product, parent *model.Product) Product {
	categories := p.CategoryIDs()
	if p.ParentID != nil && parent != nil {
		categories = parent.CategoryIDs()
	}
	return Product{
		ID:           p.ID,
		CategoryIDs:  categories,
		RegularPrice: p.RegularPrice,
		SalePrice:    p.SalePrice,
	}
}

// OnSale reports whether the product carries a sale price
func (p Product) OnSale() bool {
	return p.SalePrice.Valid
}

func (p Product) inCategory(id int64) bool {
	for _, c := range p.CategoryIDs {
		if c == id {
			return true
		}
	}
	return false
}

// Result is the outcome of resolving one product line
type Result struct {
	Price         decimal.Decimal `json:"price"`
	RegularPrice  decimal.Decimal `json:"regular_price"`
	Scope         Scope           `json:"scope"`
	QuantityBreak bool            `json:"quantity_break"`
	OnSale        bool            `json:"on_sale"`
	Discounted    bool            `json:"discounted"`
}

// Resolver applies a role's rule to product prices
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// NewResolver creates a resolver that evaluates sale windows in loc
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc, now: time.Now}
}

// WithClock replaces the clock used for storewide sale windows
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve returns the price a holder of rule pays for qty units of
// product, given the price computed so far.
//
// The first matching scope wins: storewide sale, product rule, category
// rule, general categories, global. Adjustments are computed from the
// regular price when the product is on sale. Missing or malformed data
// at a scope falls through to the next one; nothing here fails.
func (r *Resolver) Resolve(price decimal.Decimal, product Product, rule *model.Rule, qty int) Result {
	result := Result{
		Price:        price,
		RegularPrice: product.RegularPrice,
		Scope:        ScopeNone,
	}
	if rule == nil || !rule.Active {
		result.Discounted = price.LessThan(product.RegularPrice)
		return result
	}

	base := price
	if product.OnSale() {
		base = product.RegularPrice
	}

	r.resolve(&result, base, product, rule, qty)
	result.Discounted = result.Price.LessThan(product.RegularPrice)

	log.Debug().
		Str("role", rule.RoleSlug).
		Int64("product", product.ID).
		Int("qty", qty).
		Str("scope", string(result.Scope)).
		Str("price", result.Price.String()).
		Msg("Resolved rule price")

	return result
}

func (r *Resolver) resolve(result *Result, base decimal.Decimal, product Product, rule *model.Rule, qty int) {
	if SaleActive(rule.StorewideSale, r.now().In(r.loc)) {
		if p, ok := Apply(rule.StorewideSale.Adjustment, base); ok {
			result.Price = p
			result.Scope = ScopeStorewideSale
			return
		}
	}

	if pr, ok := rule.FindProductRule(product.ID); ok {
		if p, brk, ok := applyScope(pr.QuantityBreak, pr.Adjustment, base, qty); ok {
			result.Price = p
			result.Scope = ScopeProduct
			result.QuantityBreak = brk
			return
		}
	}

	for _, cr := range rule.CategoryRules {
		if !product.inCategory(cr.CategoryID) {
			continue
		}
		if p, brk, ok := applyScope(cr.QuantityBreak, cr.Adjustment, base, qty); ok {
			result.Price = p
			result.Scope = ScopeCategory
			result.QuantityBreak = brk
			result.OnSale = cr.OnSale
			return
		}
	}

	for _, id := range product.CategoryIDs {
		if !rule.HasGeneralCategory(id) {
			continue
		}
		if p, ok := Apply(rule.GeneralCategoryAdjustment, base); ok {
			result.Price = p
			result.Scope = ScopeGeneralCategory
			result.OnSale = rule.CategoriesOnSale
			return
		}
		break
	}

	if p, ok := Apply(rule.GlobalAdjustment, base); ok {
		result.Price = p
		result.Scope = ScopeGlobal
	}
}

// applyScope evaluates the quantity break before the base adjustment of
// the same record. A met break wins regardless of which price is lower.
func applyScope(qb model.QuantityBreak, base model.Adjustment, price decimal.Decimal, qty int) (decimal.Decimal, bool, bool) {
	if brk, ok := EvaluateQuantityBreak(qb, qty); ok {
		if p, ok := Apply(brk, price); ok {
			return p, true, true
		}
	}
	if p, ok := Apply(base, price); ok {
		return p, false, true
	}
	return price, false, false
}
