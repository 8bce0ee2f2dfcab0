package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string           `json:"id" bson:"_id"`
	TenantID    string           `json:"tenantId" bson:"tenant_id"`
	CategoryID  string           `json:"categoryId,omitempty" bson:"category_id,omitempty"`
	Name        string           `json:"name" bson:"name"`
	Description string           `json:"description,omitempty" bson:"description,omitempty"`
	Price       decimal.Decimal  `json:"price" bson:"price"`
	PromoPrice  *decimal.Decimal `json:"promoPrice,omitempty" bson:"promo_price,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Active      bool             `json:"active" bson:"active"`
	CreatedAt   time.Time        `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" bson:"updated_at"`
}

// EffectivePrice is the promo price when one is set, the list price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.PromoPrice != nil && p.PromoPrice.IsPositive() {
		return *p.PromoPrice
	}
	return p.Price
}

type Category struct {
	ID       string `json:"id" bson:"_id"`
	TenantID string `json:"tenantId" bson:"tenant_id"`
	Name     string `json:"name" bson:"name"`
	Slug     string `json:"slug" bson:"slug"`
	ImageURL string `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Active   bool   `json:"active" bson:"active"`
}
