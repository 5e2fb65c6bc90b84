package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/pricing"

	"github.com/rs/zerolog/log"
)

// RuleService is the management layer over the rule store. Every mutation
// reads the whole rule, changes it and writes it back under the version
// the caller last saw.
type RuleService interface {
	ListRules(ctx context.Context) ([]*model.Rule, error)
	GetRule(ctx context.Context, id uint) (*model.Rule, error)
	CreateRule(ctx context.Context, rule *model.Rule, createdBy string) (*model.Rule, error)
	// UpdateRule replaces the top-level settings of a rule and keeps its
	// product and category lists
	UpdateRule(ctx context.Context, id uint, patch *model.Rule, updatedBy string) (*model.Rule, error)
	DeleteRule(ctx context.Context, id uint, deletedBy string) error
	CopyRule(ctx context.Context, sourceID uint, req *model.RuleCopyRequest, copiedBy string) (*model.Rule, error)
	ReplaceProducts(ctx context.Context, id uint, req *model.RuleProductsRequest, updatedBy string) (*model.Rule, error)
	ReplaceCategories(ctx context.Context, id uint, req *model.RuleCategoriesRequest, updatedBy string) (*model.Rule, error)
	AddProductsFromCategory(ctx context.Context, id uint, req *model.ProductsFromCategoryRequest, updatedBy string) (*model.Rule, error)
	Explain(ctx context.Context, id uint, productID int64, qty int) (*Explanation, error)
	GetHistory(ctx context.Context, id uint, limit int) ([]model.RuleChange, error)
}

// Explanation is the outcome of resolving one product against a rule
type Explanation struct {
	RuleID    uint           `json:"rule_id"`
	Role      string         `json:"role"`
	Active    bool           `json:"active"`
	ProductID int64          `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Hidden    bool           `json:"hidden"`
	Result    pricing.Result `json:"result"`
}

type ruleServiceImpl struct {
	store    RuleStore
	audit    AuditLog
	roles    RoleService
	catalog  ProductService
	resolver *pricing.Resolver
}

// NewRuleService creates a new rule management service
func NewRuleService(store RuleStore, audit AuditLog, roles RoleService, catalog ProductService, resolver *pricing.Resolver) RuleService {
	return &ruleServiceImpl{
		store:    store,
		audit:    audit,
		roles:    roles,
		catalog:  catalog,
		resolver: resolver,
	}
}

func (s *ruleServiceImpl) record(ctx context.Context, changeType string, before, after *model.Rule, by, reason string) {
	change := model.RuleChange{
		Type:      changeType,
		Before:    before,
		After:     after,
		ChangedBy: by,
		Reason:    reason,
	}
	switch {
	case after != nil:
		change.RuleID, change.RoleSlug = after.ID, after.RoleSlug
	case before != nil:
		change.RuleID, change.RoleSlug = before.ID, before.RoleSlug
	}

	if err := s.audit.LogRuleChange(ctx, change); err != nil {
		log.Error().Err(err).Uint("rule_id", change.RuleID).Str("type", changeType).Msg("Failed to record rule change")
	}
}

// mutate loads the rule, checks the caller's version, applies fn to a copy
// and saves it
func (s *ruleServiceImpl) mutate(ctx context.Context, id uint, version int, changeType, by, reason string, fn func(r *model.Rule) error) (*model.Rule, error) {
	before, err := s.store.GetRuleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if version != 0 && version != before.Version {
		return nil, fmt.Errorf("%w: rule %d is at version %d, not %d", ErrVersionConflict, id, before.Version, version)
	}

	after := before.Clone()
	if err := fn(after); err != nil {
		return nil, err
	}
	if err := s.store.SaveRule(ctx, after); err != nil {
		return nil, err
	}

	s.record(ctx, changeType, before, after, by, reason)
	log.Info().Uint("rule_id", id).Str("role", after.RoleSlug).Str("change", changeType).Int("version", after.Version).Msg("Rule updated")
	return after, nil
}

func (s *ruleServiceImpl) ListRules(ctx context.Context) ([]*model.Rule, error) {
	return s.store.ListRules(ctx)
}

func (s *ruleServiceImpl) GetRule(ctx context.Context, id uint) (*model.Rule, error) {
	return s.store.GetRuleByID(ctx, id)
}

func (s *ruleServiceImpl) CreateRule(ctx context.Context, rule *model.Rule, createdBy string) (*model.Rule, error) {
	if rule.RoleSlug == "" {
		return nil, &model.ValidationError{Field: "role", Reason: "role slug is required"}
	}
	if _, err := s.roles.GetRole(ctx, rule.RoleSlug); err != nil {
		return nil, err
	}

	created := rule.Clone()
	created.ID = 0
	if err := s.store.SaveRule(ctx, created); err != nil {
		return nil, err
	}

	s.record(ctx, model.ChangeRuleCreate, nil, created, createdBy, "")
	log.Info().Uint("rule_id", created.ID).Str("role", created.RoleSlug).Msg("Rule created")
	return created, nil
}

func (s *ruleServiceImpl) UpdateRule(ctx context.Context, id uint, patch *model.Rule, updatedBy string) (*model.Rule, error) {
	return s.mutate(ctx, id, patch.Version, model.ChangeRuleUpdate, updatedBy, "", func(r *model.Rule) error {
		if patch.RoleSlug != "" && patch.RoleSlug != r.RoleSlug {
			return &model.ValidationError{Field: "role", Reason: "the role of a rule cannot be changed"}
		}
		r.Active = patch.Active
		r.GlobalAdjustment = patch.GlobalAdjustment
		r.GeneralCategories = append([]int64(nil), patch.GeneralCategories...)
		if len(r.GeneralCategories) == 0 {
			r.GeneralCategories = nil
		}
		r.GeneralCategoryAdjustment = patch.GeneralCategoryAdjustment
		r.CategoriesOnSale = patch.CategoriesOnSale
		r.StorewideSale = nil
		if patch.StorewideSale != nil {
			sale := *patch.StorewideSale
			r.StorewideSale = &sale
		}
		r.Coupon = patch.Coupon
		return nil
	})
}

func (s *ruleServiceImpl) DeleteRule(ctx context.Context, id uint, deletedBy string) error {
	before, err := s.store.GetRuleByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRule(ctx, id); err != nil {
		return err
	}

	s.record(ctx, model.ChangeRuleDelete, before, nil, deletedBy, "")
	log.Info().Uint("rule_id", id).Str("role", before.RoleSlug).Msg("Rule deleted")
	return nil
}

// CopyRule overwrites the product rules, category rules or both of the
// target with those of the source
func (s *ruleServiceImpl) CopyRule(ctx context.Context, sourceID uint, req *model.RuleCopyRequest, copiedBy string) (*model.Rule, error) {
	switch req.Type {
	case model.CopyProducts, model.CopyCategories, model.CopyAll:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCopyType, req.Type)
	}

	source, err := s.store.GetRuleByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	src := source.Clone()

	reason := fmt.Sprintf("copied %s from rule %d (%s)", req.Type, source.ID, source.RoleSlug)
	return s.mutate(ctx, req.TargetRuleID, 0, model.ChangeRuleCopy, copiedBy, reason, func(r *model.Rule) error {
		if req.Type == model.CopyProducts || req.Type == model.CopyAll {
			r.ProductRules = src.ProductRules
		}
		if req.Type == model.CopyCategories || req.Type == model.CopyAll {
			r.CategoryRules = src.CategoryRules
		}
		return nil
	})
}

// ReplaceProducts stores a new product list. Names are filled in from the
// catalog so the admin UI can show them without a lookup.
func (s *ruleServiceImpl) ReplaceProducts(ctx context.Context, id uint, req *model.RuleProductsRequest, updatedBy string) (*model.Rule, error) {
	products := make([]model.ProductRule, len(req.Products))
	copy(products, req.Products)
	for i := range products {
		if products[i].ProductID <= 0 {
			return nil, &model.ValidationError{Field: fmt.Sprintf("products[%d]", i), Reason: "product id must be positive"}
		}
		p, err := s.catalog.GetProduct(ctx, products[i].ProductID)
		if err != nil {
			return nil, err
		}
		products[i].Name = p.Name
	}
	if len(products) == 0 {
		products = nil
	}

	return s.mutate(ctx, id, req.Version, model.ChangeRuleProducts, updatedBy, "", func(r *model.Rule) error {
		r.ProductRules = products
		return nil
	})
}

// ReplaceCategories stores a new category list with slugs and names taken
// from the catalog
func (s *ruleServiceImpl) ReplaceCategories(ctx context.Context, id uint, req *model.RuleCategoriesRequest, updatedBy string) (*model.Rule, error) {
	categories := make([]model.CategoryRule, len(req.Categories))
	copy(categories, req.Categories)
	for i := range categories {
		if categories[i].CategoryID <= 0 {
			return nil, &model.ValidationError{Field: fmt.Sprintf("single_categories[%d]", i), Reason: "category id must be positive"}
		}
		c, err := s.catalog.GetCategory(ctx, categories[i].CategoryID)
		if err != nil {
			return nil, err
		}
		categories[i].Slug = c.Slug
		categories[i].Name = c.Name
	}
	if len(categories) == 0 {
		categories = nil
	}

	return s.mutate(ctx, id, req.Version, model.ChangeRuleCategories, updatedBy, "", func(r *model.Rule) error {
		r.CategoryRules = categories
		return nil
	})
}

// AddProductsFromCategory appends a product rule for every product of the
// category that the rule does not list yet
func (s *ruleServiceImpl) AddProductsFromCategory(ctx context.Context, id uint, req *model.ProductsFromCategoryRequest, updatedBy string) (*model.Rule, error) {
	products, err := s.catalog.ListProductsInCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	adjustment := model.NewAdjustment(req.AdjustType, req.AdjustValue)

	reason := fmt.Sprintf("products of category %d", req.CategoryID)
	return s.mutate(ctx, id, req.Version, model.ChangeRuleProducts, updatedBy, reason, func(r *model.Rule) error {
		for _, p := range products {
			if _, ok := r.FindProductRule(p.ID); ok {
				continue
			}
			r.ProductRules = append(r.ProductRules, model.ProductRule{
				ProductID:  p.ID,
				Name:       p.Name,
				Adjustment: adjustment,
			})
		}
		return nil
	})
}

func (s *ruleServiceImpl) Explain(ctx context.Context, id uint, productID int64, qty int) (*Explanation, error) {
	if qty < 1 {
		qty = 1
	}
	rule, err := s.store.GetRuleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product, parent, err := s.catalog.GetProductWithParent(ctx, productID)
	if err != nil {
		return nil, err
	}

	view := pricing.NewProduct(product, parent)
	return &Explanation{
		RuleID:    rule.ID,
		Role:      rule.RoleSlug,
		Active:    rule.Active,
		ProductID: product.ID,
		Quantity:  qty,
		Hidden:    rule.Hides(product.ID, view.CategoryIDs),
		Result:    s.resolver.Resolve(product.CurrentPrice(), view, rule, qty),
	}, nil
}

func (s *ruleServiceImpl) GetHistory(ctx context.Context, id uint, limit int) ([]model.RuleChange, error) {
	if _, err := s.store.GetRuleByID(ctx, id); err != nil {
		if !errors.Is(err, ErrRuleNotFound) {
			return nil, err
		}
		// deleted rules keep their history
		changes, herr := s.audit.GetRuleHistory(ctx, id, limit)
		if herr != nil {
			return nil, herr
		}
		if len(changes) == 0 {
			return nil, err
		}
		return changes, nil
	}
	return s.audit.GetRuleHistory(ctx, id, limit)
}
