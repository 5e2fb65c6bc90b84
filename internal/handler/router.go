package handler

import (
	"net/http"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/middleware"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// TokenService logs users in and validates the tokens it issued
type TokenService interface {
	Authenticator
	middleware.TokenValidator
}

// Services are the dependencies of the REST API
type Services struct {
	Auth     TokenService
	Authz    *service.AuthorizationService
	Users    service.UserService
	Roles    service.RoleService
	Rules    service.RuleService
	Products service.ProductService
	Pricing  service.PricingService
}

// NewRouter builds the gin engine with every route of the API
func NewRouter(s Services) *gin.Engine {
	authHandler := NewAuthHandler(s.Auth, s.Users, s.Pricing)
	permissionsHandler := NewPermissionsHandler(s.Authz)
	ruleHandler := NewRuleHandler(s.Rules)
	roleHandler := NewRoleHandler(s.Roles, s.Authz)
	productHandler := NewProductHandler(s.Products, s.Pricing)
	pricingHandler := NewPricingHandler(s.Pricing)

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery())

	requireAuth := middleware.AuthMiddleware(s.Auth)
	optionalAuth := middleware.OptionalAuth(s.Auth)
	can := func(resource, action string) gin.HandlerFunc {
		return middleware.RequirePermission(s.Authz, resource, action)
	}

	api := r.Group("/api")

	// Auth
	api.POST("/auth/login", optionalAuth, authHandler.Login)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/logout", requireAuth, authHandler.Logout)
	api.GET("/auth/permissions", requireAuth, permissionsHandler.CheckPermissions)

	// Public catalog and pricing
	public := api.Group("", optionalAuth)
	public.GET("/products", productHandler.GetProducts)
	public.POST("/prices/quote", pricingHandler.Quote)
	public.GET("/prices/:product_id", pricingHandler.PriceProduct)

	protected := api.Group("", requireAuth)

	// Rules
	rules := protected.Group("/rules")
	rules.GET("", can(service.ResourceRules, service.ActionRead), ruleHandler.ListRules)
	rules.POST("", can(service.ResourceRules, service.ActionWrite), ruleHandler.CreateRule)
	rules.GET("/:id", can(service.ResourceRules, service.ActionRead), ruleHandler.GetRule)
	rules.PUT("/:id", can(service.ResourceRules, service.ActionWrite), ruleHandler.UpdateRule)
	rules.DELETE("/:id", can(service.ResourceRules, service.ActionWrite), ruleHandler.DeleteRule)
	rules.POST("/:id/copy", can(service.ResourceRules, service.ActionWrite), ruleHandler.CopyRule)
	rules.PUT("/:id/products", can(service.ResourceRules, service.ActionWrite), ruleHandler.ReplaceProducts)
	rules.PUT("/:id/categories", can(service.ResourceRules, service.ActionWrite), ruleHandler.ReplaceCategories)
	rules.POST("/:id/products/from-category", can(service.ResourceRules, service.ActionWrite), ruleHandler.AddProductsFromCategory)
	rules.GET("/:id/explain", can(service.ResourceRules, service.ActionRead), ruleHandler.Explain)
	rules.GET("/:id/history", can(service.ResourceRules, service.ActionRead), ruleHandler.GetHistory)

	// Roles
	roles := protected.Group("/roles")
	roles.GET("", can(service.ResourceRoles, service.ActionRead), roleHandler.ListRoles)
	roles.POST("", can(service.ResourceRoles, service.ActionWrite), roleHandler.CreateRole)
	roles.GET("/:slug", can(service.ResourceRoles, service.ActionRead), roleHandler.GetRole)
	roles.DELETE("/:slug", can(service.ResourceRoles, service.ActionWrite), roleHandler.DeleteRole)

	// Catalog
	protected.GET("/products/search", can(service.ResourceCatalog, service.ActionRead), productHandler.SearchProducts)
	protected.GET("/products/:id", can(service.ResourceCatalog, service.ActionRead), productHandler.GetProduct)
	protected.POST("/products", can(service.ResourceCatalog, service.ActionWrite), productHandler.CreateProduct)
	protected.PUT("/products/:id", can(service.ResourceCatalog, service.ActionWrite), productHandler.UpdateProduct)
	protected.DELETE("/products/:id", can(service.ResourceCatalog, service.ActionWrite), productHandler.DeleteProduct)
	protected.GET("/categories", can(service.ResourceCatalog, service.ActionRead), productHandler.ListCategories)
	protected.POST("/categories", can(service.ResourceCatalog, service.ActionWrite), productHandler.CreateCategory)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "B2B pricing API is running",
		})
	})

	return r
}
