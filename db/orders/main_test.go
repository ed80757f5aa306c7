package orders

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"

	"boxoffice/db"
	"boxoffice/pubsub/outbox"
)

var startedContainers = make([]testcontainers.Container, 0)

func TestMain(m *testing.M) {
	var code int
	defer func() {
		if r := recover(); r != nil {
			code = 1
			teardown(&code)
		}
	}()
	setup()
	defer teardown(&code)
	code = m.Run()
}

func setup() {
	if os.Getenv("POSTGRES_URL") == "" {
		postgresContainer, connStr := db.StartPostgresContainer()
		startedContainers = append(startedContainers, postgresContainer)
		os.Setenv("POSTGRES_URL", connStr)
	}

	dbconn, err := sqlx.Open("postgres", os.Getenv("POSTGRES_URL"))
	if err != nil {
		panic(err)
	}
	defer dbconn.Close()

	if err := db.InitializeDatabaseSchema(dbconn); err != nil {
		panic(err)
	}

	// create the outbox tables before concurrent reservations race to do it
	if err := outbox.InitializeSchema(dbconn.DB, watermill.NopLogger{}); err != nil {
		panic(err)
	}
}

func teardown(i *int) {
	ctx := context.Background()
	for _, container := range startedContainers {
		if err := container.Terminate(ctx); err != nil {
			fmt.Println("could not terminate container:", err)
		}
	}

	os.Exit(*i)
}
