package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// WholesalerRole is the sample B2B role created by the seed
const WholesalerRole = "wholesaler"

// SeedDataManager fills an empty database with sample data. Every step
// skips work that was already done, so seeding twice is harmless.
type SeedDataManager struct {
	roleService    service.RoleService
	userService    service.UserService
	productService service.ProductService
	ruleService    service.RuleService
	ruleStore      service.RuleStore
}

// NewSeedDataManager creates a new seed data manager
func NewSeedDataManager(
	roleService service.RoleService,
	userService service.UserService,
	productService service.ProductService,
	ruleService service.RuleService,
	ruleStore service.RuleStore,
) *SeedDataManager {
	return &SeedDataManager{
		roleService:    roleService,
		userService:    userService,
		productService: productService,
		ruleService:    ruleService,
		ruleStore:      ruleStore,
	}
}

// SeedAll initializes all sample data
func (s *SeedDataManager) SeedAll(ctx context.Context) error {
	if err := s.setupRoles(ctx); err != nil {
		return fmt.Errorf("failed to setup roles: %w", err)
	}

	if err := s.setupSampleUsers(ctx); err != nil {
		return fmt.Errorf("failed to setup sample users: %w", err)
	}

	catalog, err := s.setupSampleCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup sample catalog: %w", err)
	}

	if err := s.setupWholesalerRule(ctx, catalog); err != nil {
		return fmt.Errorf("failed to setup sample rule: %w", err)
	}

	return nil
}

func (s *SeedDataManager) setupRoles(ctx context.Context) error {
	if err := s.roleService.EnsureCoreRoles(ctx); err != nil {
		return err
	}

	_, err := s.roleService.GetRole(ctx, WholesalerRole)
	if err == nil {
		return nil
	}
	if !errors.Is(err, service.ErrRoleNotFound) {
		return err
	}

	_, err = s.roleService.CreateRole(ctx, &model.RoleRequest{Name: "Wholesaler", Slug: WholesalerRole})
	if err != nil {
		return err
	}
	log.Info().Str("role", WholesalerRole).Msg("Created sample role")
	return nil
}

func (s *SeedDataManager) setupSampleUsers(ctx context.Context) error {
	users, err := s.userService.ListUsers(ctx, service.UserFilters{})
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}

	if len(users) > 0 {
		log.Info().Msg("Sample users already exist, skipping creation")
		return nil
	}

	sampleUsers := []service.CreateUserRequest{
		{
			Username: "alice",
			Password: "password123",
			Email:    "alice@example.com",
			Role:     model.RoleAdministrator,
		},
		{
			Username: "bob",
			Password: "password123",
			Email:    "bob@example.com",
			Role:     WholesalerRole,
		},
		{
			Username: "charlie",
			Password: "password123",
			Email:    "charlie@example.com",
			Role:     model.RoleCustomer,
		},
	}

	for i := range sampleUsers {
		if _, err := s.userService.CreateUser(ctx, &sampleUsers[i]); err != nil {
			return fmt.Errorf("failed to create user %s: %w", sampleUsers[i].Username, err)
		}
	}

	log.Info().Int("count", len(sampleUsers)).Msg("Sample users created")
	return nil
}

// sampleCatalog holds the ids the sample rule refers to
type sampleCatalog struct {
	tools *model.Category
	paint *model.Category
	drill *model.Product
}

func (s *SeedDataManager) setupSampleCatalog(ctx context.Context) (*sampleCatalog, error) {
	categories, err := s.productService.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing categories: %w", err)
	}

	if len(categories) > 0 {
		log.Info().Msg("Sample catalog already exists, skipping creation")
		return nil, nil
	}

	catalog := &sampleCatalog{}
	created := make(map[string]*model.Category)
	for _, name := range []string{"Tools", "Paint", "Garden"} {
		c, err := s.productService.CreateCategory(ctx, &model.CategoryRequest{Name: name})
		if err != nil {
			return nil, fmt.Errorf("failed to create category %s: %w", name, err)
		}
		created[name] = c
	}
	catalog.tools = created["Tools"]
	catalog.paint = created["Paint"]

	sampleProducts := []model.ProductRequest{
		{
			Name:         "Cordless Drill",
			SKU:          "TL-DRILL",
			RegularPrice: decimal.RequireFromString("100"),
			CategoryIDs:  []int64{catalog.tools.ID},
		},
		{
			Name:         "Hand Saw",
			SKU:          "TL-SAW",
			RegularPrice: decimal.RequireFromString("45"),
			SalePrice:    decimal.NewNullDecimal(decimal.RequireFromString("39.95")),
			CategoryIDs:  []int64{catalog.tools.ID},
		},
		{
			Name:         "Wall Paint 10L",
			SKU:          "PT-WALL-10",
			RegularPrice: decimal.RequireFromString("59.95"),
			CategoryIDs:  []int64{catalog.paint.ID},
		},
		{
			Name:         "Garden Hose 25m",
			SKU:          "GD-HOSE-25",
			RegularPrice: decimal.RequireFromString("19.99"),
			CategoryIDs:  []int64{created["Garden"].ID},
		},
	}

	for i := range sampleProducts {
		p, err := s.productService.CreateProduct(ctx, &sampleProducts[i], "seed")
		if err != nil {
			return nil, fmt.Errorf("failed to create product %s: %w", sampleProducts[i].Name, err)
		}
		if i == 0 {
			catalog.drill = p
		}
	}

	// variations inherit the parent's categories
	variation := &model.ProductRequest{
		Name:         "Cordless Drill 18V",
		SKU:          "TL-DRILL-18V",
		ParentID:     &catalog.drill.ID,
		RegularPrice: decimal.RequireFromString("129"),
	}
	if _, err := s.productService.CreateProduct(ctx, variation, "seed"); err != nil {
		return nil, fmt.Errorf("failed to create variation %s: %w", variation.Name, err)
	}

	log.Info().Int("categories", len(created)).Int("products", len(sampleProducts)+1).Msg("Sample catalog created")
	return catalog, nil
}

func (s *SeedDataManager) setupWholesalerRule(ctx context.Context, catalog *sampleCatalog) error {
	existing, err := s.ruleStore.GetRule(ctx, WholesalerRole)
	if err != nil {
		return err
	}
	if existing != nil || catalog == nil {
		log.Info().Msg("Sample rule already exists or catalog was pre-existing, skipping creation")
		return nil
	}

	rule := &model.Rule{
		RoleSlug:                  WholesalerRole,
		Active:                    true,
		GlobalAdjustment:          model.NewAdjustment(model.KindPercent, "10"),
		GeneralCategories:         []int64{catalog.paint.ID},
		GeneralCategoryAdjustment: model.NewAdjustment(model.KindPercent, "12"),
		CategoryRules: []model.CategoryRule{{
			CategoryID: catalog.tools.ID,
			Slug:       catalog.tools.Slug,
			Name:       catalog.tools.Name,
			Adjustment: model.NewAdjustment(model.KindPercent, "15"),
			QuantityBreak: model.QuantityBreak{
				MinQty:     10,
				Adjustment: model.NewAdjustment(model.KindPercent, "20"),
			},
		}},
		ProductRules: []model.ProductRule{{
			ProductID:  catalog.drill.ID,
			Name:       catalog.drill.Name,
			Adjustment: model.NewAdjustment(model.KindFixed, "15"),
			QuantityBreak: model.QuantityBreak{
				MinQty:     5,
				Adjustment: model.NewAdjustment(model.KindPercent, "20"),
			},
		}},
	}

	created, err := s.ruleService.CreateRule(ctx, rule, "seed")
	if err != nil {
		return err
	}
	log.Info().Uint("rule_id", created.ID).Str("role", WholesalerRole).Msg("Sample rule created")
	return nil
}
