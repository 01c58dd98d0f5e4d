package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	nsqdOnce      sync.Once
	nsqdContainer testcontainers.Container
)

// ConnectionDetails is where a started nsqd can be reached.
type ConnectionDetails struct {
	TCPAddress  string
	HTTPAddress string
}

// StartNSQD starts an nsqd in a container, once per test binary. All
// callers share the same instance, so tests should use distinct topics
// to avoid side-effects on each other.
func StartNSQD() (container testcontainers.Container, c *ConnectionDetails, err error) {
	ctx := context.Background()
	nsqdOnce.Do(func() {
		var err error
		req := testcontainers.ContainerRequest{
			Image:        "nsqio/nsq:v1.2.1",
			ExposedPorts: []string{"4150/tcp", "4151/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("4150/tcp"),
				wait.ForListeningPort("4151/tcp"),
			),
			Cmd: []string{"/nsqd"},
		}
		nsqdContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			panic(err.Error())
		}
	})
	ip, err := nsqdContainer.Host(ctx)
	if err != nil {
		return nsqdContainer, nil, err
	}
	tcpPort, err := nsqdContainer.MappedPort(ctx, "4150")
	if err != nil {
		return nsqdContainer, nil, err
	}
	httpPort, err := nsqdContainer.MappedPort(ctx, "4151")
	if err != nil {
		return nsqdContainer, nil, err
	}

	c = &ConnectionDetails{
		TCPAddress:  fmt.Sprintf("%s:%s", ip, tcpPort.Port()),
		HTTPAddress: fmt.Sprintf("%s:%s", ip, httpPort.Port()),
	}

	return nsqdContainer, c, err
}
