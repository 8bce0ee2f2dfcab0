// Package notify fans out order events to the merchant asynchronously, off
// the request path. The current delivery channel is the merchant's WhatsApp
// number; the actor boundary keeps that swap-friendly.
package notify

import (
	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// OrderCreated is sent after a successful checkout.
type OrderCreated struct {
	TenantID       string
	OrderID        string
	CustomerName   string
	CustomerPhone  string
	WhatsappNumber string
	Total          string
}

// OrderStatusChanged is sent after a successful status transition.
type OrderStatusChanged struct {
	TenantID      string
	OrderID       string
	CustomerPhone string
	Status        string
}

type notificationActor struct {
	logger *zap.Logger
}

func (a *notificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *OrderCreated:
		a.logger.Info("notifying merchant of new order",
			zap.String("tenant_id", msg.TenantID),
			zap.String("order_id", msg.OrderID),
			zap.String("whatsapp", msg.WhatsappNumber),
			zap.String("total", msg.Total))

	case *OrderStatusChanged:
		a.logger.Info("notifying customer of status change",
			zap.String("tenant_id", msg.TenantID),
			zap.String("order_id", msg.OrderID),
			zap.String("status", msg.Status))

	case *actor.Started:
		a.logger.Info("notification actor started")

	case *actor.Stopped:
		a.logger.Info("notification actor stopped")
	}
}

// Notifier owns the actor system and the single notification actor.
type Notifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
}

func NewNotifier(logger *zap.Logger) *Notifier {
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return &notificationActor{logger: logger}
	})
	return &Notifier{
		system: system,
		pid:    system.Root.Spawn(props),
	}
}

// OrderCreated enqueues the event; delivery is fire-and-forget.
func (n *Notifier) OrderCreated(ev OrderCreated) {
	n.system.Root.Send(n.pid, &ev)
}

func (n *Notifier) OrderStatusChanged(ev OrderStatusChanged) {
	n.system.Root.Send(n.pid, &ev)
}

func (n *Notifier) Shutdown() {
	n.system.Root.Poison(n.pid)
	n.system.Shutdown()
}
