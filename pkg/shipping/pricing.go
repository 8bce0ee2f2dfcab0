// Package shipping computes a delivery fee from a tenant's delivery config
// and a destination. The engine is pure: distance resolution happens outside
// (see DistanceProvider) and is handed in pre-resolved.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingAddress means the mode needs a destination and none was given.
	ErrMissingAddress = errors.New("delivery address required")

	// ErrDeliveryUnavailable is the umbrella rejection: the configured mode
	// cannot price this destination. ErrOutOfRange and ErrRegionNotServed
	// both match it under errors.Is.
	ErrDeliveryUnavailable = errors.New("delivery unavailable")
	ErrOutOfRange          = fmt.Errorf("%w: destination out of radius", ErrDeliveryUnavailable)
	ErrRegionNotServed     = fmt.Errorf("%w: region not served", ErrDeliveryUnavailable)
)

// ErrUnresolvable means the geocoding collaborator could not produce a
// distance for the destination.
var ErrUnresolvable = errors.New("distance unresolvable")

// DistanceProvider resolves the distance in km between the store origin
// (free-form address, geocoded by the provider) and a destination. Radius
// mode only; backed by an external geocoding service.
type DistanceProvider interface {
	DistanceBetween(ctx context.Context, origin string, destination models.Address) (decimal.Decimal, error)
}

// DistanceFunc adapts a plain function to DistanceProvider.
type DistanceFunc func(ctx context.Context, origin string, destination models.Address) (decimal.Decimal, error)

func (f DistanceFunc) DistanceBetween(ctx context.Context, origin string, destination models.Address) (decimal.Decimal, error) {
	return f(ctx, origin, destination)
}

// QuoteRequest carries the per-order inputs the engine needs beyond the
// tenant config: the destination, the pre-resolved distance (radius mode)
// and the items subtotal (free-shipping threshold).
type QuoteRequest struct {
	Address    *models.Address
	DistanceKm decimal.Decimal
	Subtotal   decimal.Decimal
}

// Quote prices a delivery against the tenant's active mode.
//
// Money is 2-decimal fixed point; the radius multiplication rounds half-up
// once at the end, never per intermediate step.
func Quote(cfg models.DeliveryConfig, req QuoteRequest) (decimal.Decimal, error) {
	if cfg.Mode == models.DeliveryModePickup {
		return decimal.Zero, nil
	}
	if req.Address == nil {
		return decimal.Zero, ErrMissingAddress
	}

	switch cfg.Mode {
	case models.DeliveryModeFixed:
		return cfg.FixedPrice.Round(2), nil

	case models.DeliveryModeRadius:
		rc := cfg.Radius
		if rc == nil {
			return decimal.Zero, ErrDeliveryUnavailable
		}
		if req.DistanceKm.GreaterThan(rc.MaxRadiusKm) {
			// Out-of-range destinations are never served, not even free.
			return decimal.Zero, ErrOutOfRange
		}
		if rc.FreeShippingThreshold != nil && req.Subtotal.GreaterThanOrEqual(*rc.FreeShippingThreshold) {
			return decimal.Zero, nil
		}
		price := rc.PricePerKm.Mul(req.DistanceKm).Round(2)
		if price.LessThan(rc.MinPrice) {
			price = rc.MinPrice
		}
		return price, nil

	case models.DeliveryModeRegions:
		for _, region := range cfg.Regions {
			if !region.Active {
				continue
			}
			if matchesRegion(region.Name, req.Address.Neighborhood) ||
				matchesRegion(region.Name, req.Address.City) {
				return region.Price.Round(2), nil
			}
		}
		return decimal.Zero, ErrRegionNotServed

	default:
		return decimal.Zero, ErrDeliveryUnavailable
	}
}

// matchesRegion is a case-insensitive equality or substring match of the
// region name against the destination text.
func matchesRegion(name, destination string) bool {
	name = strings.TrimSpace(strings.ToLower(name))
	destination = strings.TrimSpace(strings.ToLower(destination))
	if name == "" || destination == "" {
		return false
	}
	return destination == name || strings.Contains(destination, name)
}
