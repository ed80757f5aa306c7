package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"boxoffice/booking"
	dbLib "boxoffice/db"
	"boxoffice/db/events"
	"boxoffice/db/orders"
	"boxoffice/db/tiers"
	"boxoffice/db/users"
	"boxoffice/http"
	"boxoffice/pubsub"
	"boxoffice/pubsub/command"
	"boxoffice/pubsub/event"
	"boxoffice/pubsub/outbox"
	"boxoffice/scheduler"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type Config struct {
	HTTPAddr      string
	PaymentWindow time.Duration
	SweepInterval time.Duration
}

type Service struct {
	db              *sqlx.DB
	bookingService  *booking.Service
	reaper          *booking.Reaper
	timers          *scheduler.Scheduler
	watermillRouter *message.Router
	httpServer      *http.Server
}

func New(
	cfg Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	membership booking.MembershipVerifier,
) Service {
	usersRepo := users.NewPostgresRepository(db)
	eventsRepo := events.NewPostgresRepository(db)
	tiersRepo := tiers.NewPostgresRepository(db)
	ordersRepo := orders.NewPostgresRepository(db)

	if membership == nil {
		membership = usersRepo
	}

	validator := booking.NewValidator(usersRepo, eventsRepo, tiersRepo, ordersRepo, membership)
	bookingService := booking.NewService(validator, tiersRepo, ordersRepo, cfg.PaymentWindow)

	timers := scheduler.New()
	reaper := booking.NewReaper(bookingService, timers, cfg.SweepInterval)

	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher := pubsub.NewRedisPublisher(redisClient, watermillLogger)
	postgresSubscriber := outbox.NewPostgresSubscriber(db.DB, watermillLogger)

	eventsHandler := event.NewHandler(reaper)
	commandsHandler := command.NewHandler(bookingService)

	watermillRouter, err := pubsub.NewWatermillRouter(
		postgresSubscriber,
		redisPublisher,
		redisClient,
		eventsHandler,
		commandsHandler,
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Errorf("failed to create watermill router: %w", err))
	}

	httpServer := http.NewServer(cfg.HTTPAddr)

	return Service{
		db:              db,
		bookingService:  bookingService,
		reaper:          reaper,
		timers:          timers,
		watermillRouter: watermillRouter,
		httpServer:      httpServer,
	}
}

// BookingService exposes the engine's programmatic API to in-process
// callers.
func (s Service) BookingService() *booking.Service {
	return s.bookingService
}

func (s Service) Run(ctx context.Context) error {
	if err := dbLib.InitializeDatabaseSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	s.reaper.Start()
	defer s.timers.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		// don't start HTTP server before the router (the service is not healthy before that)
		<-s.watermillRouter.Running()

		return s.httpServer.Run(ctx)
	})

	return g.Wait()
}
