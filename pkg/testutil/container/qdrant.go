package container

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultQdrantImage = "qdrant/qdrant:v1.16.0"

// QdrantContainer runs a single qdrant node with its gRPC API exposed.
type QdrantContainer struct {
	Container testcontainers.Container
	Host      string
	GRPCPort  int
}

// StartQdrantContainer starts qdrant and waits for the gRPC port.
func StartQdrantContainer(ctx context.Context) (*QdrantContainer, error) {
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve grpc port: %w", err)
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        defaultQdrantImage,
			ExposedPorts: []string{"6334/tcp"},
			Env:          map[string]string{"QDRANT__SERVICE__GRPC_PORT": "6334"},
			HostConfigModifier: func(cfg *container.HostConfig) {
				cfg.PortBindings = nat.PortMap{
					"6334/tcp": []nat.PortBinding{{HostPort: port}},
				}
			},
			WaitingFor: wait.ForListeningPort("6334/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start qdrant container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx) //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	grpcPort, err := strconv.Atoi(port)
	if err != nil {
		_ = c.Terminate(ctx) //nolint:errcheck // best effort cleanup
		return nil, err
	}

	return &QdrantContainer{Container: c, Host: host, GRPCPort: grpcPort}, nil
}

// Terminate terminates the container.
func (q *QdrantContainer) Terminate(ctx context.Context) error {
	if q.Container != nil {
		return q.Container.Terminate(ctx)
	}
	return nil
}
