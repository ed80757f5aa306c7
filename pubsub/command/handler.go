package command

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"boxoffice/entity"
)

// OrderLifecycle is the slice of the booking engine the command handlers
// drive on behalf of the payment-integration layer.
type OrderLifecycle interface {
	CompleteOrder(ctx context.Context, orderID string) error
	CancelOrder(ctx context.Context, orderID, reason string) error
}

type Handler struct {
	orders OrderLifecycle
}

func NewHandler(orders OrderLifecycle) Handler {
	if orders == nil {
		panic("missing orders lifecycle")
	}

	return Handler{
		orders: orders,
	}
}

func (h Handler) CompleteOrderHandler() cqrs.CommandHandler {
	return cqrs.NewCommandHandler(
		"CompleteOrderHandler",
		func(ctx context.Context, command *entity.CompleteOrder) error {
			log.FromContext(ctx).
				WithField("order_id", command.OrderID).
				Info("Completing order")

			if err := h.orders.CompleteOrder(ctx, command.OrderID); err != nil {
				return fmt.Errorf("could not complete order %s: %w", command.OrderID, err)
			}
			return nil
		},
	)
}

func (h Handler) CancelOrderHandler() cqrs.CommandHandler {
	return cqrs.NewCommandHandler(
		"CancelOrderHandler",
		func(ctx context.Context, command *entity.CancelOrder) error {
			log.FromContext(ctx).
				WithField("order_id", command.OrderID).
				WithField("reason", command.Reason).
				Info("Cancelling order")

			if err := h.orders.CancelOrder(ctx, command.OrderID, command.Reason); err != nil {
				return fmt.Errorf("could not cancel order %s: %w", command.OrderID, err)
			}
			return nil
		},
	)
}
