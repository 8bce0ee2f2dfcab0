package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is the subscription tier gating feature availability and quotas.
type Plan string

const (
	PlanBasic Plan = "basic"
	PlanPro   Plan = "pro"
)

type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionCanceled  SubscriptionStatus = "canceled"
)

// TrialPeriod is granted to every tenant at signup.
const TrialPeriod = 7 * 24 * time.Hour

type PaymentMethods struct {
	Pix               bool `json:"pix" bson:"pix"`
	CreditCard        bool `json:"creditCard" bson:"credit_card"`
	DebitCard         bool `json:"debitCard" bson:"debit_card"`
	Boleto            bool `json:"boleto" bson:"boleto"`
	BoletoInstallment bool `json:"boletoInstallment" bson:"boleto_installment"`
	Money             bool `json:"money" bson:"money"`
}

type DeliveryMode string

const (
	DeliveryModeFixed   DeliveryMode = "fixed"
	DeliveryModeRadius  DeliveryMode = "radius"
	DeliveryModeRegions DeliveryMode = "regions"
	DeliveryModePickup  DeliveryMode = "pickup"
)

type RadiusConfig struct {
	PricePerKm            decimal.Decimal  `json:"pricePerKm" bson:"price_per_km"`
	MinPrice              decimal.Decimal  `json:"minPrice" bson:"min_price"`
	MaxRadiusKm           decimal.Decimal  `json:"maxRadiusKm" bson:"max_radius_km"`
	FreeShippingThreshold *decimal.Decimal `json:"freeShippingThreshold,omitempty" bson:"free_shipping_threshold,omitempty"`
}

// DeliveryRegion is a named city or neighborhood served at a flat price.
type DeliveryRegion struct {
	ID     string          `json:"id" bson:"id"`
	Name   string          `json:"name" bson:"name"`
	Price  decimal.Decimal `json:"price" bson:"price"`
	Active bool            `json:"active" bson:"active"`
}

// DeliveryConfig holds one active pricing mode plus its parameters. Only the
// parameters matching Mode are consulted; the rest may be stale leftovers
// from a previous mode choice.
type DeliveryConfig struct {
	Mode       DeliveryMode     `json:"mode" bson:"mode"`
	FixedPrice decimal.Decimal  `json:"fixedPrice" bson:"fixed_price"`
	Radius     *RadiusConfig    `json:"radiusConfig,omitempty" bson:"radius_config,omitempty"`
	Regions    []DeliveryRegion `json:"regions,omitempty" bson:"regions,omitempty"`
}

type SlugChange struct {
	Slug      string    `json:"slug" bson:"slug"`
	ChangedAt time.Time `json:"changedAt" bson:"changed_at"`
}

// Tenant is one merchant account and its store configuration.
type Tenant struct {
	ID           string `json:"id" bson:"_id"`
	Slug         string `json:"slug" bson:"slug"`
	CustomDomain string `json:"customDomain,omitempty" bson:"custom_domain,omitempty"`
	Name         string `json:"name" bson:"name"`
	Description  string `json:"description,omitempty" bson:"description,omitempty"`

	LogoURL        string `json:"logoUrl,omitempty" bson:"logo_url,omitempty"`
	BannerURL      string `json:"bannerUrl,omitempty" bson:"banner_url,omitempty"`
	PrimaryColor   string `json:"primaryColor" bson:"primary_color"`
	WhatsappNumber string `json:"whatsappNumber" bson:"whatsapp_number"`
	// Free-form store address; radius pricing geocodes it as the origin.
	Address string `json:"address,omitempty" bson:"address,omitempty"`

	Plan               Plan               `json:"plan" bson:"plan"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus" bson:"subscription_status"`
	TrialEndsAt        *time.Time         `json:"trialEndsAt,omitempty" bson:"trial_ends_at,omitempty"`

	// Monthly interest rate (percent) applied to card installments; zero
	// means installments at the cash price.
	CreditCardInterestRate decimal.Decimal `json:"creditCardInterestRate" bson:"credit_card_interest_rate"`

	PaymentMethods PaymentMethods `json:"paymentMethods" bson:"payment_methods"`
	DeliveryConfig DeliveryConfig `json:"deliveryConfig" bson:"delivery_config"`

	// Past slugs, kept for redirects only; lookups always use Slug.
	SlugHistory []SlugChange `json:"slugHistory,omitempty" bson:"slug_history,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// Suspended reports whether the tenant's public storefront is unreachable.
func (t *Tenant) Suspended() bool {
	return t.SubscriptionStatus == SubscriptionSuspended
}
