// Package gateway is the HTTP surface: public storefront endpoints, the
// merchant admin API and the platform super-admin API.
package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/figueredofxx/katalogo.digital/pkg/config"
	"github.com/figueredofxx/katalogo.digital/pkg/notify"
	"github.com/figueredofxx/katalogo.digital/pkg/orders"
	"github.com/figueredofxx/katalogo.digital/pkg/plans"
	"github.com/figueredofxx/katalogo.digital/pkg/repository"
	"github.com/figueredofxx/katalogo.digital/pkg/shipping"
	"github.com/figueredofxx/katalogo.digital/pkg/tenancy"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Gateway struct {
	config   *config.Config
	store    repository.Store
	cache    *repository.Cache
	resolver *tenancy.Resolver
	orders   *orders.Service
	notifier *notify.Notifier
	logger   *zap.Logger
	router   *gin.Engine
}

func NewGateway(
	cfg *config.Config,
	logger *zap.Logger,
	store repository.Store,
	cache *repository.Cache,
	resolver *tenancy.Resolver,
	orderSvc *orders.Service,
	notifier *notify.Notifier,
) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config:   cfg,
		store:    store,
		cache:    cache,
		resolver: resolver,
		orders:   orderSvc,
		notifier: notifier,
		logger:   logger,
		router:   router,
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := g.router.Group("/api")
	{
		api.POST("/tenants", g.registerTenant)

		public := api.Group("/public")
		{
			public.GET("/resolve", g.resolveHost)
			public.GET("/store/:identifier", g.getStorefront)
			public.GET("/store/:identifier/installments", g.getInstallments)
			public.POST("/store/:identifier/orders", g.createOrder)
			public.GET("/orders/:id", g.trackOrder)
			public.GET("/customer/orders", g.customerOrders)
		}

		admin := api.Group("/admin")
		admin.Use(g.requireTenant())
		{
			admin.GET("/me", g.getTenant)
			admin.PUT("/settings", g.updateSettings)

			admin.GET("/products", g.listProducts)
			admin.POST("/products", g.createProduct)
			admin.PUT("/products/:id", g.updateProduct)
			admin.DELETE("/products/:id", g.deleteProduct)

			admin.GET("/categories", g.listCategories)
			admin.POST("/categories", g.createCategory)
			admin.PUT("/categories/:id", g.updateCategory)
			admin.DELETE("/categories/:id", g.deleteCategory)

			admin.GET("/orders", g.listOrders)
			admin.GET("/orders/:id", g.getOrder)
			admin.PATCH("/orders/:id/status", g.updateOrderStatus)

			admin.GET("/reports", g.getReports)
		}

		super := api.Group("/super-admin")
		super.Use(g.requireAdminHost())
		{
			super.GET("/tenants", g.listTenants)
			super.PATCH("/tenants/:id/status", g.updateTenantStatus)
		}
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)
	g.logger.Info("gateway starting", zap.String("address", addr))
	return g.router.Run(addr)
}

// Router exposes the configured engine for tests.
func (g *Gateway) Router() http.Handler {
	return g.router
}

// fail maps a domain error to its HTTP status. Every rejection is explicit
// and synchronous; nothing is retried here.
func (g *Gateway) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tenancy.ErrTenantNotFound),
		errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrMissingAddress),
		errors.Is(err, shipping.ErrMissingAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, shipping.ErrDeliveryUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, plans.ErrQuotaExceeded),
		errors.Is(err, plans.ErrPlanRequired):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		g.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
