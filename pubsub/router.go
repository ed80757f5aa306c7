package pubsub

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"boxoffice/pubsub/command"
	"boxoffice/pubsub/event"
	"boxoffice/pubsub/outbox"
)

// NewWatermillRouter assembles the messaging side of the service: the outbox
// forwarder (Postgres to Redis Streams), the event processor that arms order
// expiry timers, and the command processor driven by the payment layer.
func NewWatermillRouter(
	postgresSubscriber message.Subscriber,
	redisPublisher message.Publisher,
	redisClient *redis.Client,
	eventsHandler event.Handler,
	commandsHandler command.Handler,
	watermillLogger watermill.LoggerAdapter,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("could not create router: %w", err)
	}

	useMiddlewares(router, watermillLogger)

	outbox.AddForwarderHandler(postgresSubscriber, redisPublisher, router, watermillLogger)

	err = RegisterEventHandlers(
		redisClient,
		router,
		[]cqrs.EventHandler{
			eventsHandler.ScheduleOrderExpiryHandler(),
		},
		watermillLogger,
	)
	if err != nil {
		return nil, err
	}

	err = RegisterCommandHandlers(
		redisClient,
		router,
		[]cqrs.CommandHandler{
			commandsHandler.CompleteOrderHandler(),
			commandsHandler.CancelOrderHandler(),
		},
		watermillLogger,
	)
	if err != nil {
		return nil, err
	}

	return router, nil
}
