package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/figueredofxx/katalogo.digital/pkg/notify"
	"github.com/figueredofxx/katalogo.digital/pkg/orders"
	"github.com/figueredofxx/katalogo.digital/pkg/payments"
	"github.com/figueredofxx/katalogo.digital/pkg/repository"
	"github.com/figueredofxx/katalogo.digital/pkg/tenancy"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type storefrontPayload struct {
	Tenant     *models.Tenant     `json:"tenant"`
	Products   []*models.Product  `json:"products"`
	Categories []*models.Category `json:"categories"`
}

// resolveHost answers the edge router's question: which application does
// this host belong to. Admin hosts are flagged before any tenant lookup.
func (g *Gateway) resolveHost(c *gin.Context) {
	host := c.Query("host")
	if host == "" {
		host = c.Request.Host
	}
	if g.resolver.IsAdminHost(host) {
		c.JSON(http.StatusOK, gin.H{"admin": true})
		return
	}
	tenant, err := g.resolver.Resolve(c.Request.Context(), host)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": false, "tenant": tenant})
}

func (g *Gateway) getStorefront(c *gin.Context) {
	ctx := c.Request.Context()
	identifier := strings.ToLower(c.Param("identifier"))

	var cached storefrontPayload
	if err := g.cache.GetStorefront(ctx, identifier, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	} else if !repository.IsCacheMiss(err) {
		g.logger.Warn("storefront cache read failed", zap.Error(err))
	}

	tenant, err := g.resolver.Resolve(ctx, identifier)
	if err != nil {
		g.fail(c, err)
		return
	}

	products, err := g.store.Products().ListByTenant(ctx, tenant.ID, true)
	if err != nil {
		g.fail(c, err)
		return
	}
	categories, err := g.store.Categories().ListByTenant(ctx, tenant.ID)
	if err != nil {
		g.fail(c, err)
		return
	}

	payload := storefrontPayload{Tenant: tenant, Products: products, Categories: categories}
	if err := g.cache.CacheStorefront(ctx, identifier, payload); err != nil {
		g.logger.Warn("storefront cache write failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, payload)
}

// getInstallments previews the credit-card installment table for a price
// under the tenant's configured monthly rate.
func (g *Gateway) getInstallments(c *gin.Context) {
	tenant, err := g.resolver.Resolve(c.Request.Context(), strings.ToLower(c.Param("identifier")))
	if err != nil {
		g.fail(c, err)
		return
	}
	price, err := decimal.NewFromString(c.Query("price"))
	if err != nil || price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"installments": payments.Schedule(price, tenant.CreditCardInterestRate),
	})
}

type checkoutItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type checkoutRequest struct {
	CustomerName   string                `json:"customerName" binding:"required"`
	CustomerPhone  string                `json:"customerPhone" binding:"required"`
	DeliveryMethod models.DeliveryMethod `json:"deliveryMethod" binding:"required"`
	Address        *models.Address       `json:"address"`
	Items          []checkoutItem        `json:"items"`
	PaymentMethod  models.PaymentMethod  `json:"paymentMethod" binding:"required"`
	Notes          string                `json:"notes"`
	DistanceKm     *decimal.Decimal      `json:"distanceKm"`
}

// createOrder is the anonymous checkout. Item prices are snapshotted from
// the live catalog here, server-side; the client never dictates amounts.
func (g *Gateway) createOrder(c *gin.Context) {
	ctx := c.Request.Context()

	tenant, err := g.resolver.Resolve(ctx, strings.ToLower(c.Param("identifier")))
	if err != nil {
		g.fail(c, err)
		return
	}

	var req checkoutRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item quantity must be positive"})
			return
		}
		product, err := g.store.Products().GetByID(ctx, tenant.ID, it.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown product: " + it.ProductID})
			return
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.EffectivePrice(),
			Quantity:  it.Quantity,
		})
	}

	order, err := g.orders.Create(ctx, tenant, orders.CreateInput{
		Customer:       models.Customer{Name: req.CustomerName, Phone: req.CustomerPhone},
		DeliveryMethod: req.DeliveryMethod,
		Address:        req.Address,
		Items:          items,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
		DistanceKm:     req.DistanceKm,
	})
	if err != nil {
		g.fail(c, err)
		return
	}

	g.notifier.OrderCreated(notify.OrderCreated{
		TenantID:       tenant.ID,
		OrderID:        order.ID,
		CustomerName:   order.Customer.Name,
		CustomerPhone:  order.Customer.Phone,
		WhatsappNumber: tenant.WhatsappNumber,
		Total:          order.Total.StringFixed(2),
	})

	c.JSON(http.StatusCreated, order)
}

func (g *Gateway) trackOrder(c *gin.Context) {
	order, err := g.store.Orders().LoadByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) customerOrders(c *gin.Context) {
	phone := c.Query("phone")
	tenantID := c.Query("tenant")
	if phone == "" || tenantID == "" {
		c.JSON(http.StatusOK, []interface{}{})
		return
	}
	list, err := g.store.Orders().ListByCustomerPhone(c.Request.Context(), tenantID, phone)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type registerRequest struct {
	Name           string `json:"name" binding:"required"`
	Slug           string `json:"slug" binding:"required"`
	Plan           string `json:"plan"`
	WhatsappNumber string `json:"whatsappNumber"`
}

// registerTenant is the signup action: every new store starts on a 7-day
// trial with a default fixed/zero delivery config.
func (g *Gateway) registerTenant(c *gin.Context) {
	var req registerRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !tenancy.ValidSlug(slug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slug"})
		return
	}

	plan := models.PlanBasic
	if req.Plan == string(models.PlanPro) {
		plan = models.PlanPro
	}

	now := time.Now()
	trialEnd := now.Add(models.TrialPeriod)
	tenant := &models.Tenant{
		ID:                 uuid.NewString(),
		Slug:               slug,
		Name:               req.Name,
		PrimaryColor:       "#4B0082",
		WhatsappNumber:     req.WhatsappNumber,
		Plan:               plan,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEnd,
		PaymentMethods: models.PaymentMethods{
			Pix:        true,
			CreditCard: true,
			Money:      true,
		},
		DeliveryConfig: models.DeliveryConfig{
			Mode:       models.DeliveryModeFixed,
			FixedPrice: decimal.Zero,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := g.store.Tenants().Create(c.Request.Context(), tenant); err != nil {
		g.fail(c, err)
		return
	}

	g.logger.Info("tenant registered",
		zap.String("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug))
	c.JSON(http.StatusCreated, tenant)
}
