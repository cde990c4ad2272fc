package types

import "time"

// HealthState classifies a component's ability to serve requests.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// HealthStatus is one health observation: the state, a human-readable reason,
// and when the check ran.
type HealthStatus struct {
	State     HealthState `json:"state"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

// Healthy reports a component that is fully serving.
func Healthy(message string) HealthStatus {
	return status(HealthStateHealthy, message)
}

// Degraded reports a component that serves with reduced capability.
func Degraded(message string) HealthStatus {
	return status(HealthStateDegraded, message)
}

// Unhealthy reports a component that cannot serve.
func Unhealthy(message string) HealthStatus {
	return status(HealthStateUnhealthy, message)
}

func status(state HealthState, message string) HealthStatus {
	return HealthStatus{State: state, Message: message, CheckedAt: time.Now()}
}

// IsHealthy reports whether the component is fully serving.
func (h HealthStatus) IsHealthy() bool { return h.State == HealthStateHealthy }

// IsDegraded reports whether the component serves with reduced capability.
func (h HealthStatus) IsDegraded() bool { return h.State == HealthStateDegraded }

// IsUnhealthy reports whether the component cannot serve.
func (h HealthStatus) IsUnhealthy() bool { return h.State == HealthStateUnhealthy }
