package container

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultRedpandaImage = "redpandadata/redpanda:v24.1.1"

// RedpandaContainer runs a single-node Redpanda broker with its built-in
// Schema Registry.
type RedpandaContainer struct {
	Container         testcontainers.Container
	Brokers           string
	SchemaRegistryURL string
}

// RedpandaOption configures the Redpanda container.
type RedpandaOption func(*redpandaOptions)

type redpandaOptions struct {
	image        string
	readyTimeout time.Duration
}

// WithRedpandaImage sets the Redpanda image to use.
func WithRedpandaImage(image string) RedpandaOption {
	return func(o *redpandaOptions) {
		o.image = image
	}
}

// WithReadyTimeout bounds the wait for the Schema Registry to answer.
func WithReadyTimeout(d time.Duration) RedpandaOption {
	return func(o *redpandaOptions) {
		o.readyTimeout = d
	}
}

// StartRedpandaContainer starts Redpanda and waits until both the Kafka API and
// the Schema Registry accept requests. The Kafka port is bound to a fixed free
// host port so the advertised address works from the test process.
func StartRedpandaContainer(ctx context.Context, opts ...RedpandaOption) (*RedpandaContainer, error) {
	options := &redpandaOptions{
		image:        defaultRedpandaImage,
		readyTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(options)
	}

	kafkaPort, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve kafka port: %w", err)
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        options.image,
			ExposedPorts: []string{"8081/tcp", "9092/tcp"},
			Cmd: []string{
				"redpanda", "start",
				"--mode", "dev-container",
				"--smp", "1",
				"--memory", "512M",
				"--reserve-memory", "0M",
				"--overprovisioned",
				"--node-id", "0",
				"--kafka-addr", "PLAINTEXT://0.0.0.0:9092",
				"--advertise-kafka-addr", "PLAINTEXT://localhost:" + kafkaPort,
				"--schema-registry-addr", "0.0.0.0:8081",
			},
			HostConfigModifier: func(cfg *container.HostConfig) {
				cfg.PortBindings = nat.PortMap{
					"9092/tcp": []nat.PortBinding{{HostPort: kafkaPort}},
				}
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("8081/tcp"),
				wait.ForListeningPort("9092/tcp"),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redpanda container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx) //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := c.MappedPort(ctx, "8081")
	if err != nil {
		_ = c.Terminate(ctx) //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("failed to get schema registry port: %w", err)
	}

	registryURL := fmt.Sprintf("http://%s:%s", host, port.Port())
	if err := waitForSchemaRegistry(ctx, registryURL, options.readyTimeout); err != nil {
		_ = c.Terminate(ctx) //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("schema registry not ready: %w", err)
	}

	return &RedpandaContainer{
		Container:         c,
		Brokers:           "localhost:" + kafkaPort,
		SchemaRegistryURL: registryURL,
	}, nil
}

// Terminate terminates the container.
func (r *RedpandaContainer) Terminate(ctx context.Context) error {
	if r.Container != nil {
		return r.Container.Terminate(ctx)
	}
	return nil
}

func waitForSchemaRegistry(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: 2 * time.Second}
	probe := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/subjects", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close() //nolint:errcheck // best effort cleanup
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil
	}

	b := backoff.NewConstantBackOff(500 * time.Millisecond)
	return backoff.Retry(probe, backoff.WithContext(b, ctx))
}

func freePort() (string, error) {
	lc := &net.ListenConfig{}
	l, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer func() { _ = l.Close() }()
	return strconv.Itoa(l.Addr().(*net.TCPAddr).Port), nil
}
