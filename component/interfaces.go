package component

import "context"

// HealthStatus is the state reported by Component.Health.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is a point-in-time report. Message carries pool statistics or the
// failure reason and never connection secrets.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component represents a lifecycle-managed infrastructure component.
type Component interface {
	// Name returns the unique name of the component.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description summarizes a component and its configuration.
type Description struct {
	// Name is the human-readable display name. Empty means Component.Name.
	Name string
	// Type categorizes the component, e.g. "database".
	Type string
	// Details is a one-liner such as "sqlite pool=25/5 plugins=fieldcrypt".
	Details string
}

// Describable is optionally implemented by components to report what they
// are and how they are configured.
type Describable interface {
	Describe() Description
}
