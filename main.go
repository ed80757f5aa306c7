package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jessevdk/go-flags"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"

	"boxoffice/pubsub"
	"boxoffice/service"
	"boxoffice/tracing"
)

type options struct {
	HTTPAddr       string        `long:"http-addr" env:"HTTP_ADDR" default:":8080" description:"health/metrics listen address"`
	PostgresURL    string        `long:"postgres-url" env:"POSTGRES_URL" required:"true" description:"postgres connection string"`
	RedisAddr      string        `long:"redis-addr" env:"REDIS_ADDR" required:"true" description:"redis address"`
	JaegerEndpoint string        `long:"jaeger-endpoint" env:"JAEGER_ENDPOINT" description:"jaeger collector endpoint"`
	PaymentWindow  time.Duration `long:"payment-window" env:"PAYMENT_WINDOW" default:"15m" description:"how long a pending order holds its tickets"`
	SweepInterval  time.Duration `long:"sweep-interval" env:"SWEEP_INTERVAL" default:"1m" description:"how often to sweep for expired orders"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	if opts.JaegerEndpoint != "" {
		tp := tracing.ConfigureTraceProvider(opts.JaegerEndpoint)
		defer func() {
			_ = tp.Shutdown(context.Background())
		}()
	}

	sqlDB, err := otelsql.Open("postgres", opts.PostgresURL)
	if err != nil {
		panic(err)
	}
	db := sqlx.NewDb(sqlDB, "postgres")
	defer db.Close()

	redisClient := pubsub.NewRedisClient(opts.RedisAddr)
	defer redisClient.Close()

	svc := service.New(
		service.Config{
			HTTPAddr:      opts.HTTPAddr,
			PaymentWindow: opts.PaymentWindow,
			SweepInterval: opts.SweepInterval,
		},
		db,
		redisClient,
		nil,
	)

	log.FromContext(ctx).Info("Starting boxoffice service")

	if err := svc.Run(ctx); err != nil {
		panic(err)
	}
}
