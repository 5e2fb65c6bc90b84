package service

import (
	"context"
	"fmt"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/pricing"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// anonymousSession is the cache key shared by every request without a
// session
const anonymousSession = "anonymous"

// PricingService prices products for the caller's role
type PricingService interface {
	// RuleForActor returns the active rule of the actor's role, nil when
	// there is none or it could not be loaded
	RuleForActor(ctx context.Context, actor *model.Actor) *model.Rule
	Quote(ctx context.Context, actor *model.Actor, req *model.QuoteRequest) (*model.Quote, error)
	PriceProduct(ctx context.Context, actor *model.Actor, productID int64, qty int) (*model.QuoteLine, error)
	// InvalidateSession drops the cached rule of a session
	InvalidateSession(sessionID string)
}

type pricingServiceImpl struct {
	store    RuleStore
	cache    *pricing.RuleCache
	resolver *pricing.Resolver
	catalog  ProductService
	decimals int32
}

// NewPricingService creates a new pricing service. Prices are rounded to
// decimals places.
func NewPricingService(store RuleStore, cache *pricing.RuleCache, resolver *pricing.Resolver, catalog ProductService, decimals int32) PricingService {
	return &pricingServiceImpl{
		store:    store,
		cache:    cache,
		resolver: resolver,
		catalog:  catalog,
		decimals: decimals,
	}
}

func actorRole(actor *model.Actor) string {
	if actor == nil || actor.Role == "" {
		return model.GuestRole
	}
	return actor.Role
}

func (s *pricingServiceImpl) RuleForActor(ctx context.Context, actor *model.Actor) *model.Rule {
	role := actorRole(actor)
	session := anonymousSession
	if actor != nil && actor.SessionID != "" {
		session = actor.SessionID
	}

	rule, err := s.cache.Lookup(ctx, session, role, s.store.GetRule)
	if err != nil {
		// pricing never fails on a broken rule; shoppers see the shop price
		log.Warn().Err(err).Str("role", role).Msg("Failed to load pricing rule, using shop prices")
		return nil
	}
	return rule
}

func (s *pricingServiceImpl) InvalidateSession(sessionID string) {
	s.cache.Invalidate(sessionID)
}

func (s *pricingServiceImpl) priceLine(ctx context.Context, rule *model.Rule, productID int64, qty int) (*model.QuoteLine, error) {
	if qty < 1 {
		return nil, &model.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	product, parent, err := s.catalog.GetProductWithParent(ctx, productID)
	if err != nil {
		return nil, err
	}

	view := pricing.NewProduct(product, parent)
	// hidden products are priced as if they did not exist
	if rule.Hides(product.ID, view.CategoryIDs) ||
		(product.ParentID != nil && rule.Hides(*product.ParentID, view.CategoryIDs)) {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}

	result := s.resolver.Resolve(product.CurrentPrice(), view, rule, qty)
	unit := result.Price.Round(s.decimals)

	return &model.QuoteLine{
		ProductID:     product.ID,
		Name:          product.Name,
		Quantity:      qty,
		UnitPrice:     unit,
		RegularPrice:  result.RegularPrice.Round(s.decimals),
		LineTotal:     unit.Mul(decimal.NewFromInt(int64(qty))),
		Discounted:    result.Discounted,
		OnSale:        result.OnSale || product.OnSale(),
		QuantityBreak: result.QuantityBreak,
		Scope:         string(result.Scope),
	}, nil
}

func (s *pricingServiceImpl) Quote(ctx context.Context, actor *model.Actor, req *model.QuoteRequest) (*model.Quote, error) {
	rule := s.RuleForActor(ctx, actor)

	quote := &model.Quote{
		Role:  actorRole(actor),
		Lines: make([]model.QuoteLine, 0, len(req.Lines)),
		Total: decimal.Zero,
	}
	for i, line := range req.Lines {
		qty := line.Quantity
		if qty == 0 {
			qty = 1
		}
		priced, err := s.priceLine(ctx, rule, line.ProductID, qty)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		quote.Lines = append(quote.Lines, *priced)
		quote.Total = quote.Total.Add(priced.LineTotal)
	}
	return quote, nil
}

func (s *pricingServiceImpl) PriceProduct(ctx context.Context, actor *model.Actor, productID int64, qty int) (*model.QuoteLine, error) {
	return s.priceLine(ctx, s.RuleForActor(ctx, actor), productID, qty)
}
