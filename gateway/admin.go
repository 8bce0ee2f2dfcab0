package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/figueredofxx/katalogo.digital/pkg/notify"
	"github.com/figueredofxx/katalogo.digital/pkg/plans"
	"github.com/figueredofxx/katalogo.digital/pkg/tenancy"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (g *Gateway) getTenant(c *gin.Context) {
	c.JSON(http.StatusOK, currentTenant(c))
}

// settingsRequest is a partial update: nil fields are left untouched.
type settingsRequest struct {
	Name                   *string                `json:"name"`
	Description            *string                `json:"description"`
	LogoURL                *string                `json:"logoUrl"`
	BannerURL              *string                `json:"bannerUrl"`
	PrimaryColor           *string                `json:"primaryColor"`
	WhatsappNumber         *string                `json:"whatsappNumber"`
	Address                *string                `json:"address"`
	Slug                   *string                `json:"slug"`
	CustomDomain           *string                `json:"customDomain"`
	CreditCardInterestRate *decimal.Decimal       `json:"creditCardInterestRate"`
	PaymentMethods         *models.PaymentMethods `json:"paymentMethods"`
	DeliveryConfig         *models.DeliveryConfig `json:"deliveryConfig"`
}

func (g *Gateway) updateSettings(c *gin.Context) {
	tenant := currentTenant(c)

	var req settingsRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Identifiers the storefront cache may be keyed under before this update.
	stale := []string{tenant.Slug}
	if tenant.CustomDomain != "" {
		stale = append(stale, tenant.CustomDomain)
	}

	if req.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*req.Slug))
		if !tenancy.ValidSlug(slug) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slug"})
			return
		}
		if slug != tenant.Slug {
			tenant.SlugHistory = append(tenant.SlugHistory, models.SlugChange{
				Slug:      tenant.Slug,
				ChangedAt: time.Now(),
			})
			tenant.Slug = slug
		}
	}
	if req.CustomDomain != nil {
		domain := strings.ToLower(strings.TrimSpace(*req.CustomDomain))
		if err := plans.Authorize(tenant, plans.ActionSetCustomDomain, plans.Context{RequestedDomain: domain}); err != nil {
			g.fail(c, err)
			return
		}
		tenant.CustomDomain = domain
	}
	if req.Name != nil {
		tenant.Name = *req.Name
	}
	if req.Description != nil {
		tenant.Description = *req.Description
	}
	if req.LogoURL != nil {
		tenant.LogoURL = *req.LogoURL
	}
	if req.BannerURL != nil {
		tenant.BannerURL = *req.BannerURL
	}
	if req.PrimaryColor != nil {
		tenant.PrimaryColor = *req.PrimaryColor
	}
	if req.WhatsappNumber != nil {
		tenant.WhatsappNumber = *req.WhatsappNumber
	}
	if req.Address != nil {
		tenant.Address = *req.Address
	}
	if req.CreditCardInterestRate != nil {
		tenant.CreditCardInterestRate = *req.CreditCardInterestRate
	}
	if req.PaymentMethods != nil {
		tenant.PaymentMethods = *req.PaymentMethods
	}
	if req.DeliveryConfig != nil {
		tenant.DeliveryConfig = *req.DeliveryConfig
	}
	tenant.UpdatedAt = time.Now()

	if err := g.store.Tenants().Update(c.Request.Context(), tenant); err != nil {
		g.fail(c, err)
		return
	}

	stale = append(stale, tenant.Slug)
	if tenant.CustomDomain != "" {
		stale = append(stale, tenant.CustomDomain)
	}
	if err := g.cache.InvalidateStorefront(c.Request.Context(), stale...); err != nil {
		g.logger.Warn("storefront cache invalidation failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, tenant)
}

type productRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price" binding:"required"`
	PromoPrice  *decimal.Decimal `json:"promoPrice"`
	CategoryID  string           `json:"categoryId"`
	ImageURL    string           `json:"imageUrl"`
	Active      *bool            `json:"active"`
}

func (g *Gateway) listProducts(c *gin.Context) {
	tenant := currentTenant(c)
	products, err := g.store.Products().ListByTenant(c.Request.Context(), tenant.ID, false)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (g *Gateway) createProduct(c *gin.Context) {
	tenant := currentTenant(c)
	ctx := c.Request.Context()

	var req productRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := g.store.Products().CountByTenant(ctx, tenant.ID)
	if err != nil {
		g.fail(c, err)
		return
	}
	if err := plans.Authorize(tenant, plans.ActionCreateProduct, plans.Context{CurrentProductCount: count}); err != nil {
		g.fail(c, err)
		return
	}

	now := time.Now()
	product := &models.Product{
		ID:          uuid.NewString(),
		TenantID:    tenant.ID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		PromoPrice:  req.PromoPrice,
		ImageURL:    req.ImageURL,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := g.store.Products().Create(ctx, product); err != nil {
		g.fail(c, err)
		return
	}
	g.invalidateStorefront(c, tenant)
	c.JSON(http.StatusCreated, product)
}

func (g *Gateway) updateProduct(c *gin.Context) {
	tenant := currentTenant(c)
	ctx := c.Request.Context()

	product, err := g.store.Products().GetByID(ctx, tenant.ID, c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}

	var req productRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.PromoPrice = req.PromoPrice
	product.CategoryID = req.CategoryID
	product.ImageURL = req.ImageURL
	if req.Active != nil {
		product.Active = *req.Active
	}
	product.UpdatedAt = time.Now()

	if err := g.store.Products().Update(ctx, product); err != nil {
		g.fail(c, err)
		return
	}
	g.invalidateStorefront(c, tenant)
	c.JSON(http.StatusOK, product)
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	tenant := currentTenant(c)
	if err := g.store.Products().Delete(c.Request.Context(), tenant.ID, c.Param("id")); err != nil {
		g.fail(c, err)
		return
	}
	g.invalidateStorefront(c, tenant)
	c.Status(http.StatusNoContent)
}

type categoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Slug     string `json:"slug"`
	ImageURL string `json:"imageUrl"`
	Active   *bool  `json:"active"`
}

func (g *Gateway) listCategories(c *gin.Context) {
	tenant := currentTenant(c)
	categories, err := g.store.Categories().ListByTenant(c.Request.Context(), tenant.ID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (g *Gateway) createCategory(c *gin.Context) {
	tenant := currentTenant(c)

	var req categoryRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &models.Category{
		ID:       uuid.NewString(),
		TenantID: tenant.ID,
		Name:     req.Name,
		Slug:     req.Slug,
		ImageURL: req.ImageURL,
		Active:   true,
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := g.store.Categories().Create(c.Request.Context(), category); err != nil {
		g.fail(c, err)
		return
	}
	g.invalidateStorefront(c, tenant)
	c.JSON(http.StatusCreated, category)
}

func (g *Gateway) updateCategory(c *gin.Context) {
	tenant := currentTenant(c)

	var req categoryRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &models.Category{
		ID:       c.Param("id"),
		TenantID: tenant.ID,
		Name:     req.Name,
		Slug:     req.Slug,
		ImageURL: req.ImageURL,
		Active:   true,
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := g.store.Categories().Update(c.Request.Context(), category); err != nil {
		g.fail(c, err)
		return
	}
	g.invalidateStorefront(c, tenant)
	c.JSON(http.StatusOK, category)
}

func (g *Gateway) deleteCategory(c *gin.Context) {
	tenant := currentTenant(c)
	if err := g.store.Categories().Delete(c.Request.Context(), tenant.ID, c.Param("id")); err != nil {
		g.fail(c, err)
		return
	}
	g.invalidateStorefront(c, tenant)
	c.Status(http.StatusNoContent)
}

func (g *Gateway) listOrders(c *gin.Context) {
	tenant := currentTenant(c)
	list, err := g.store.Orders().ListByTenant(c.Request.Context(), tenant.ID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (g *Gateway) getOrder(c *gin.Context) {
	tenant := currentTenant(c)
	order, err := g.store.Orders().LoadByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	if order.TenantID != tenant.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	tenant := currentTenant(c)

	var req statusRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := g.orders.ChangeStatus(c.Request.Context(), tenant.ID, c.Param("id"), req.Status)
	if err != nil {
		g.fail(c, err)
		return
	}

	g.notifier.OrderStatusChanged(notify.OrderStatusChanged{
		TenantID:      tenant.ID,
		OrderID:       order.ID,
		CustomerPhone: order.Customer.Phone,
		Status:        string(order.Status),
	})

	c.JSON(http.StatusOK, order)
}

// getReports aggregates the tenant's order history. Pro feature.
func (g *Gateway) getReports(c *gin.Context) {
	tenant := currentTenant(c)
	if err := plans.Authorize(tenant, plans.ActionViewReports, plans.Context{}); err != nil {
		g.fail(c, err)
		return
	}

	list, err := g.store.Orders().ListByTenant(c.Request.Context(), tenant.ID)
	if err != nil {
		g.fail(c, err)
		return
	}

	revenue := decimal.Zero
	byStatus := map[models.OrderStatus]int{}
	for _, o := range list {
		byStatus[o.Status]++
		if o.Status != models.OrderCanceled {
			revenue = revenue.Add(o.Total)
		}
	}

	ticket := decimal.Zero
	billed := len(list) - byStatus[models.OrderCanceled]
	if billed > 0 {
		ticket = revenue.Div(decimal.NewFromInt(int64(billed))).Round(2)
	}

	c.JSON(http.StatusOK, gin.H{
		"totalOrders":    len(list),
		"totalRevenue":   revenue,
		"averageTicket":  ticket,
		"ordersByStatus": byStatus,
	})
}

func (g *Gateway) listTenants(c *gin.Context) {
	list, err := g.store.Tenants().List(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type tenantStatusRequest struct {
	SubscriptionStatus models.SubscriptionStatus `json:"subscriptionStatus" binding:"required"`
}

// updateTenantStatus is the platform operator's suspend/reactivate switch.
func (g *Gateway) updateTenantStatus(c *gin.Context) {
	var req tenantStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.SubscriptionStatus {
	case models.SubscriptionTrial, models.SubscriptionActive, models.SubscriptionPastDue,
		models.SubscriptionSuspended, models.SubscriptionCanceled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown subscription status"})
		return
	}

	tenant, err := g.store.Tenants().GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}

	tenant.SubscriptionStatus = req.SubscriptionStatus
	tenant.UpdatedAt = time.Now()
	if err := g.store.Tenants().Update(c.Request.Context(), tenant); err != nil {
		g.fail(c, err)
		return
	}
	g.invalidateStorefront(c, tenant)

	g.logger.Info("tenant status changed",
		zap.String("tenant_id", tenant.ID),
		zap.String("status", string(tenant.SubscriptionStatus)))
	c.JSON(http.StatusOK, tenant)
}

func (g *Gateway) invalidateStorefront(c *gin.Context, tenant *models.Tenant) {
	keys := []string{tenant.Slug}
	if tenant.CustomDomain != "" {
		keys = append(keys, tenant.CustomDomain)
	}
	if err := g.cache.InvalidateStorefront(c.Request.Context(), keys...); err != nil {
		g.logger.Warn("storefront cache invalidation failed", zap.Error(err))
	}
}
