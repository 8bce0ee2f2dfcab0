// Package orders owns the order status state machine and order creation.
package orders

import (
	"errors"
	"time"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
)

var (
	// ErrInvalidTransition rejects any status jump outside the canonical
	// sequence, including re-sending the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrEmptyOrder rejects a checkout with no items.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrMissingAddress rejects a delivery order without a usable address.
	ErrMissingAddress = errors.New("delivery order requires an address")
)

// next maps each status to its canonical successor. Terminal statuses have
// no entry.
var next = map[models.OrderStatus]models.OrderStatus{
	models.OrderPending:   models.OrderConfirmed,
	models.OrderConfirmed: models.OrderPreparing,
	models.OrderPreparing: models.OrderReady,
	models.OrderReady:     models.OrderShipping,
	models.OrderShipping:  models.OrderDelivered,
}

// CanTransition reports whether from → to is legal: the strict linear
// advance, cancel from any non-terminal state, or the admin "accept"
// shortcut pending → preparing. Repeating the current status is illegal;
// duplicate requests are a client bug to surface, not swallow.
func CanTransition(from, to models.OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == models.OrderCanceled {
		return true
	}
	if next[from] == to {
		return true
	}
	return from == models.OrderPending && to == models.OrderPreparing
}

// Transition applies a status change in place and appends the timeline
// event. On rejection the order is left untouched: no partial effect, no
// timeline entry.
func Transition(o *models.Order, to models.OrderStatus, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return ErrInvalidTransition
	}
	o.Status = to
	o.Timeline = append(o.Timeline, models.TimelineEvent{Status: to, Timestamp: now})
	o.UpdatedAt = now
	return nil
}
