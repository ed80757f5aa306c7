package tests

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"boxoffice/db/events"
	"boxoffice/db/orders"
	"boxoffice/db/tiers"
	"boxoffice/db/users"
	"boxoffice/entity"
	"boxoffice/gateway"
	"boxoffice/pubsub"
	"boxoffice/service"
)

var (
	httpAddress = ":8080"
)

func TestComponent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("github.com/testcontainers/testcontainers-go.(*Reaper).Connect.func1"))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	dbconn, err := sqlx.Open("postgres", postgresURL)
	if err != nil {
		panic(err)
	}
	defer dbconn.Close()

	redisClient := pubsub.NewRedisClient(redisURL)
	defer redisClient.Close()

	membershipClient := &gateway.MembershipMock{Members: map[string]bool{}}

	done := make(chan struct{})
	go func() {
		<-done
		e := syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
		require.NoError(t, e)
	}()

	finished := make(chan struct{})
	svc := service.New(
		service.Config{
			HTTPAddr:      httpAddress,
			PaymentWindow: 30 * time.Second,
			SweepInterval: time.Second,
		},
		dbconn,
		redisClient,
		membershipClient,
	)
	go func() {
		assert.NoError(t, svc.Run(ctx))
		close(finished)
	}()

	defer func() {
		close(done)
		<-finished
	}()

	waitForHttpServer(t)

	userID := seedUser(t, dbconn)
	event := seedEvent(t, dbconn)
	tier := seedTier(t, dbconn, event.ID)

	order, err := svc.BookingService().Book(ctx, entity.BookingRequest{
		UserID:     userID,
		EventID:    event.ID,
		Selections: map[string]int{tier.ID: 2},
	})
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusPending, order.Status)

	assertOrderCreatedPublished(t, redisClient, order.ID)

	sendCompleteOrder(t, redisClient, order.ID)
	assertOrderStatus(t, dbconn, order.ID, entity.OrderStatusCompleted)

	// an abandoned reservation is released by the sweep
	overdueUser := seedUser(t, dbconn)
	overdue := reserveOverdueOrder(t, dbconn, overdueUser, event.ID, tier.ID)
	assertOrderStatus(t, dbconn, overdue.ID, entity.OrderStatusExpired)
}

// assertOrderCreatedPublished proves the outbox forwarded the event to Redis
// Streams after the reservation committed.
func assertOrderCreatedPublished(t *testing.T, redisClient *redis.Client, orderID string) {
	t.Helper()

	topic := "events." + cqrs.StructName(entity.OrderCreated{})

	assert.Eventually(
		t,
		func() bool {
			messages, err := redisClient.XRange(context.Background(), topic, "-", "+").Result()
			if err != nil {
				return false
			}

			for _, message := range messages {
				for _, value := range message.Values {
					if s, ok := value.(string); ok && strings.Contains(s, orderID) {
						return true
					}
				}
			}

			return false
		},
		10*time.Second,
		100*time.Millisecond,
	)
}

func sendCompleteOrder(t *testing.T, redisClient *redis.Client, orderID string) {
	t.Helper()

	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))
	commandBus, err := pubsub.NewCommandBus(pubsub.NewRedisPublisher(redisClient, watermillLogger))
	require.NoError(t, err)

	err = commandBus.Send(context.Background(), entity.CompleteOrder{
		Header:  entity.NewEventHeader(),
		OrderID: orderID,
	})
	require.NoError(t, err)
}

func assertOrderStatus(t *testing.T, dbconn *sqlx.DB, orderID string, status entity.OrderStatus) {
	t.Helper()

	repo := orders.NewPostgresRepository(dbconn)

	assert.Eventually(
		t,
		func() bool {
			order, err := repo.Get(context.Background(), orderID)
			return err == nil && order.Status == status
		},
		15*time.Second,
		100*time.Millisecond,
	)
}

func reserveOverdueOrder(t *testing.T, dbconn *sqlx.DB, userID, eventID, tierID string) entity.TicketOrder {
	t.Helper()

	order := entity.TicketOrder{
		ID:          uuid.NewString(),
		ReferenceID: entity.NewOrderReference(),
		UserID:      userID,
		EventID:     eventID,
		Status:      entity.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(50),
		ExpiresAt:   time.Now().Add(-time.Minute),
		CreatedAt:   time.Now().UTC(),
	}
	ticket := entity.Ticket{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		EventID:   eventID,
		TierID:    tierID,
		UserID:    userID,
		Status:    entity.TicketStatusPending,
		ExpiresAt: order.ExpiresAt,
	}

	repo := orders.NewPostgresRepository(dbconn)
	require.NoError(t, repo.Reserve(context.Background(), order, []entity.Ticket{ticket}))
	return order
}

func seedUser(t *testing.T, dbconn *sqlx.DB) string {
	t.Helper()

	user := entity.User{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@test.io",
	}
	require.NoError(t, users.NewPostgresRepository(dbconn).Store(context.Background(), user))
	return user.ID
}

func seedEvent(t *testing.T, dbconn *sqlx.DB) entity.Event {
	t.Helper()

	event := entity.Event{
		ID:        uuid.NewString(),
		Name:      "component test event",
		State:     entity.EventStatePublished,
		StartDate: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, events.NewPostgresRepository(dbconn).Store(context.Background(), event))
	return event
}

func seedTier(t *testing.T, dbconn *sqlx.DB, eventID string) entity.TicketTier {
	t.Helper()

	tier := entity.TicketTier{
		ID:       uuid.NewString(),
		EventID:  eventID,
		Name:     "general admission",
		Price:    decimal.RequireFromString("25.50"),
		Quantity: lo.ToPtr(100),
	}
	require.NoError(t, tiers.NewPostgresRepository(dbconn).Store(context.Background(), tier))
	return tier
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(fmt.Sprintf("http://localhost%s/health", httpAddress))
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			if !assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode) {
				return
			}
		},
		time.Second*10,
		time.Millisecond*50,
	)
}
