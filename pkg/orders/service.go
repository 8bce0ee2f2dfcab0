package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/figueredofxx/katalogo.digital/pkg/repository"
	"github.com/figueredofxx/katalogo.digital/pkg/shipping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service runs checkout creation and admin status changes over the order
// store. All tenant configuration arrives as an explicit argument; the
// service keeps no ambient tenant state.
type Service struct {
	store    repository.OrderStore
	distance shipping.DistanceProvider
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store repository.OrderStore, distance shipping.DistanceProvider, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		distance: distance,
		logger:   logger,
		now:      time.Now,
	}
}

type CreateInput struct {
	Customer       models.Customer
	DeliveryMethod models.DeliveryMethod
	Address        *models.Address
	Items          []models.OrderItem
	PaymentMethod  models.PaymentMethod
	Notes          string
	// DistanceKm, when set, is a pre-resolved distance for radius pricing;
	// when nil the service asks its DistanceProvider.
	DistanceKm *decimal.Decimal
}

// Create validates a checkout, prices the delivery fee against the tenant's
// current delivery config, and persists the new pending order. Anonymous
// callers get no reduced validation; this is the public checkout surface.
func (s *Service) Create(ctx context.Context, tenant *models.Tenant, in CreateInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if in.DeliveryMethod == models.DeliveryMethodDelivery {
		if in.Address == nil ||
			strings.TrimSpace(in.Address.Street) == "" ||
			strings.TrimSpace(in.Address.Neighborhood) == "" {
			return nil, ErrMissingAddress
		}
	}

	subtotal := decimal.Zero
	for _, it := range in.Items {
		subtotal = subtotal.Add(it.Subtotal())
	}

	fee := decimal.Zero
	if in.DeliveryMethod == models.DeliveryMethodDelivery {
		req := shipping.QuoteRequest{Address: in.Address, Subtotal: subtotal}
		if tenant.DeliveryConfig.Mode == models.DeliveryModeRadius {
			if in.DistanceKm != nil {
				req.DistanceKm = *in.DistanceKm
			} else {
				dist, err := s.distance.DistanceBetween(ctx, tenant.Address, *in.Address)
				if err != nil {
					return nil, fmt.Errorf("%w: distance unresolvable", shipping.ErrDeliveryUnavailable)
				}
				req.DistanceKm = dist
			}
		}
		var err error
		fee, err = shipping.Quote(tenant.DeliveryConfig, req)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	order := &models.Order{
		ID:             uuid.NewString(),
		TenantID:       tenant.ID,
		Customer:       in.Customer,
		DeliveryMethod: in.DeliveryMethod,
		Address:        in.Address,
		Items:          in.Items,
		DeliveryFee:    fee,
		Total:          subtotal.Add(fee),
		PaymentMethod:  in.PaymentMethod,
		Notes:          in.Notes,
		Status:         models.OrderPending,
		Timeline:       []models.TimelineEvent{{Status: models.OrderPending, Timestamp: now}},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("tenant_id", tenant.ID),
		zap.String("total", order.Total.StringFixed(2)))
	return order, nil
}

// ChangeStatus loads a fresh order snapshot, validates the transition against
// it and persists the result. The store applies its own per-order
// concurrency control; on conflict the caller retries with a re-read.
func (s *Service) ChangeStatus(ctx context.Context, tenantID, orderID string, to models.OrderStatus) (*models.Order, error) {
	order, err := s.store.LoadByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}

	if err := Transition(order, to, s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("tenant_id", tenantID),
		zap.String("status", string(to)))
	return order, nil
}
