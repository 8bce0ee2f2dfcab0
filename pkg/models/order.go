package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderShipping  OrderStatus = "shipping"
	OrderDelivered OrderStatus = "delivered"
	OrderCanceled  OrderStatus = "canceled"
)

// Terminal reports whether no further transition may leave this status.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCanceled
}

type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

type PaymentMethod string

const (
	PaymentPix               PaymentMethod = "pix"
	PaymentCreditCard        PaymentMethod = "credit_card"
	PaymentDebitCard         PaymentMethod = "debit_card"
	PaymentBoleto            PaymentMethod = "boleto"
	PaymentBoletoInstallment PaymentMethod = "boleto_installment"
	PaymentMoney             PaymentMethod = "money"
)

type Address struct {
	ZipCode      string `json:"zipCode,omitempty" bson:"zip_code,omitempty"`
	Street       string `json:"street" bson:"street"`
	Number       string `json:"number,omitempty" bson:"number,omitempty"`
	Neighborhood string `json:"neighborhood" bson:"neighborhood"`
	City         string `json:"city,omitempty" bson:"city,omitempty"`
	State        string `json:"state,omitempty" bson:"state,omitempty"`
	Complement   string `json:"complement,omitempty" bson:"complement,omitempty"`
}

type Customer struct {
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone" bson:"phone"`
}

// OrderItem is a value snapshot taken at checkout. Later product edits never
// rewrite historical orders.
type OrderItem struct {
	ProductID string          `json:"productId" bson:"product_id"`
	Name      string          `json:"name" bson:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice" bson:"unit_price"`
	Quantity  int             `json:"quantity" bson:"quantity"`
}

// Subtotal is unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type TimelineEvent struct {
	Status    OrderStatus `json:"status" bson:"status"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
}

// Order is a single customer purchase attempt against one tenant.
//
// Invariants: Timeline has at least one entry, the first being
// {pending, CreatedAt}; timestamps are non-decreasing; the last timeline
// status equals Status.
type Order struct {
	ID             string          `json:"id" bson:"_id"`
	TenantID       string          `json:"tenantId" bson:"tenant_id"`
	Customer       Customer        `json:"customer" bson:"customer"`
	DeliveryMethod DeliveryMethod  `json:"deliveryMethod" bson:"delivery_method"`
	Address        *Address        `json:"address,omitempty" bson:"address,omitempty"`
	Items          []OrderItem     `json:"items" bson:"items"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee" bson:"delivery_fee"`
	Total          decimal.Decimal `json:"total" bson:"total"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod" bson:"payment_method"`
	Notes          string          `json:"notes,omitempty" bson:"notes,omitempty"`
	Status         OrderStatus     `json:"status" bson:"status"`
	Timeline       []TimelineEvent `json:"timeline" bson:"timeline"`
	// Version is the optimistic-concurrency revision. Stores increment it on
	// every successful save and reject saves from a stale snapshot.
	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// ItemsSubtotal sums the item snapshots, excluding the delivery fee.
func (o *Order) ItemsSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}
