package health

import (
	"context"
	"time"
)

type ComponentStatus struct {
	Name      string    `json:"name"`
	Ready     bool      `json:"ready"`
	StartedAt time.Time `json:"started-at"`
	ReadyAt   time.Time `json:"ready-at,omitzero"`
}

type ReadinessStatus struct {
	Ready      bool              `json:"ready"`
	Components []ComponentStatus `json:"components"`
	ReadyAt    time.Time         `json:"ready-at,omitzero"`
}

// ComponentManager registers components whose startup gates readiness.
type ComponentManager interface {
	// AddComponent registers a component and returns a function that marks it ready.
	AddComponent(name string) func()
}

// ReadinessChecker reports readiness.
type ReadinessChecker interface {
	IsReady() bool
	GetStatus() ReadinessStatus
}

// ReadinessWaiter blocks until every registered component is ready.
type ReadinessWaiter interface {
	WaitReady(ctx context.Context) error
}

// StateReporter exposes the lifecycle state of a long-running component,
// such as a topic listener, on the health endpoint.
type StateReporter interface {
	Name() string
	State() string
}
