//go:build integration

package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer is a throwaway PostgreSQL server for integration tests.
type PostgresContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "docrag",
			"POSTGRES_PASSWORD": "docrag",
			"POSTGRES_DB":       "docrag",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to create postgres container: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}
	return &PostgresContainer{Container: container, Host: host, Port: port.Port()}
}

func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf("postgres://docrag:docrag@%s:%s/docrag?sslmode=disable", pc.Host, pc.Port)
}

func (pc *PostgresContainer) Terminate() error {
	return testcontainers.TerminateContainer(pc.Container)
}
