package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"gorm.io/gorm"
)

// ProductService is the catalog: products, their variations and categories
type ProductService interface {
	CreateProduct(ctx context.Context, req *model.ProductRequest, createdBy string) (*model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	// GetProductWithParent also loads the parent of a variation
	GetProductWithParent(ctx context.Context, id int64) (*model.Product, *model.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *model.ProductRequest, updatedBy string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64, deletedBy string) error
	// ListProducts pages the catalog, leaving out what rule hides. A nil
	// rule hides nothing.
	ListProducts(ctx context.Context, rule *model.Rule, filters ProductFilters) (*model.ProductListResponse, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error)
	ListProductsInCategory(ctx context.Context, categoryID int64) ([]model.Product, error)

	CreateCategory(ctx context.Context, req *model.CategoryRequest) (*model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// ProductFilters narrows a product listing
type ProductFilters struct {
	CategoryID int64
	Page       int // starts at 1
	Limit      int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type productServiceImpl struct {
	db *gorm.DB
}

// NewProductService creates a new catalog service
func NewProductService(db *gorm.DB) ProductService {
	return &productServiceImpl{db: db}
}

func (s *productServiceImpl) loadCategories(ctx context.Context, ids []int64) ([]model.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []model.Category
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("%w: one of %v", ErrCategoryNotFound, ids)
	}
	return categories, nil
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func validateProductRequest(req *model.ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return &model.ValidationError{Field: "name", Reason: "product name is required"}
	}
	if req.RegularPrice.IsNegative() {
		return &model.ValidationError{Field: "regular_price", Reason: "must not be negative"}
	}
	if req.SalePrice.Valid && req.SalePrice.Decimal.IsNegative() {
		return &model.ValidationError{Field: "sale_price", Reason: "must not be negative"}
	}
	return nil
}

func (s *productServiceImpl) checkParent(ctx context.Context, parentID *int64, self int64) error {
	if parentID == nil {
		return nil
	}
	if *parentID == self {
		return &model.ValidationError{Field: "parent_id", Reason: "a product cannot be its own parent"}
	}
	parent, err := s.GetProduct(ctx, *parentID)
	if err != nil {
		return err
	}
	if parent.ParentID != nil {
		return &model.ValidationError{Field: "parent_id", Reason: "variations cannot have variations"}
	}
	return nil
}

func (s *productServiceImpl) CreateProduct(ctx context.Context, req *model.ProductRequest, createdBy string) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, req.ParentID, 0); err != nil {
		return nil, err
	}
	categories, err := s.loadCategories(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:         strings.TrimSpace(req.Name),
		SKU:          req.SKU,
		ParentID:     req.ParentID,
		RegularPrice: req.RegularPrice,
		SalePrice:    req.SalePrice,
		Categories:   categories,
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).Preload("Categories").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (s *productServiceImpl) GetProductWithParent(ctx context.Context, id int64) (*model.Product, *model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if product.ParentID == nil {
		return product, nil, nil
	}
	parent, err := s.GetProduct(ctx, *product.ParentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load parent of product %d: %w", id, err)
	}
	return product, parent, nil
}

func (s *productServiceImpl) UpdateProduct(ctx context.Context, id int64, req *model.ProductRequest, updatedBy string) (*model.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, req.ParentID, id); err != nil {
		return nil, err
	}
	categories, err := s.loadCategories(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(req.Name)
	product.SKU = req.SKU
	product.ParentID = req.ParentID
	product.RegularPrice = req.RegularPrice
	product.SalePrice = req.SalePrice

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Save(product).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if err := tx.Model(product).Association("Categories").Replace(categories); err != nil {
			return fmt.Errorf("failed to update product categories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	product.Categories = categories
	return product, nil
}

// DeleteProduct removes the product together with its variations
func (s *productServiceImpl) DeleteProduct(ctx context.Context, id int64, deletedBy string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var variations []model.Product
		if err := tx.Where("parent_id = ?", id).Find(&variations).Error; err != nil {
			return fmt.Errorf("failed to load variations: %w", err)
		}
		for i := range variations {
			if err := tx.Select("Categories").Delete(&variations[i]).Error; err != nil {
				return fmt.Errorf("failed to delete variation %d: %w", variations[i].ID, err)
			}
		}
		if err := tx.Select("Categories").Delete(product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

// effectiveCategories maps each product to the categories pricing uses:
// its own, or its parent's for a variation
func (s *productServiceImpl) effectiveCategories(ctx context.Context, products []model.Product) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(products))
	var parentIDs []int64
	for i := range products {
		if products[i].ParentID != nil {
			parentIDs = append(parentIDs, *products[i].ParentID)
			continue
		}
		out[products[i].ID] = products[i].CategoryIDs()
	}
	if len(parentIDs) == 0 {
		return out, nil
	}

	var parents []model.Product
	if err := s.db.WithContext(ctx).Preload("Categories").Where("id IN ?", parentIDs).Find(&parents).Error; err != nil {
		return nil, fmt.Errorf("failed to load parent products: %w", err)
	}
	byID := make(map[int64][]int64, len(parents))
	for i := range parents {
		byID[parents[i].ID] = parents[i].CategoryIDs()
	}
	for i := range products {
		if products[i].ParentID != nil {
			out[products[i].ID] = byID[*products[i].ParentID]
		}
	}
	return out, nil
}

func (s *productServiceImpl) ListProducts(ctx context.Context, rule *model.Rule, filters ProductFilters) (*model.ProductListResponse, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := s.db.WithContext(ctx).Model(&model.Product{}).Preload("Categories").Order("products.id")
	if filters.CategoryID > 0 {
		query = query.Where("products.id IN (?)",
			s.db.Table("product_categories").Select("product_id").Where("category_id = ?", filters.CategoryID))
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	categories, err := s.effectiveCategories(ctx, products)
	if err != nil {
		return nil, err
	}

	visible := make([]model.Product, 0, len(products))
	for _, p := range products {
		if rule.Hides(p.ID, categories[p.ID]) {
			continue
		}
		if p.ParentID != nil && rule.Hides(*p.ParentID, categories[p.ID]) {
			continue
		}
		visible = append(visible, p)
	}

	total := len(visible)
	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &model.ProductListResponse{
		Products:   visible[start:end],
		Total:      end - start,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		TotalItems: total,
	}, nil
}

func (s *productServiceImpl) SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var products []model.Product
	err := s.db.WithContext(ctx).
		Preload("Categories").
		Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern).
		Order("name").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// ListProductsInCategory returns the products assigned to the category
// directly, without variations
func (s *productServiceImpl) ListProductsInCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	var products []model.Product
	err := s.db.WithContext(ctx).
		Joins("JOIN product_categories pc ON pc.product_id = products.id").
		Where("pc.category_id = ?", categoryID).
		Order("products.id").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products of category %d: %w", categoryID, err)
	}
	return products, nil
}

func (s *productServiceImpl) CreateCategory(ctx context.Context, req *model.CategoryRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "category name is required"}
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, &model.ValidationError{Field: "slug", Reason: "category slug is required"}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check category slug: %w", err)
	}
	if count > 0 {
		return nil, &model.ValidationError{Field: "slug", Reason: fmt.Sprintf("%q is already in use", slug)}
	}

	category := &model.Category{Name: name, Slug: slug}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &model.ValidationError{Field: "slug", Reason: fmt.Sprintf("%q is already in use", slug)}
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *productServiceImpl) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrCategoryNotFound, id)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (s *productServiceImpl) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
