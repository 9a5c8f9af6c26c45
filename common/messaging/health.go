package messaging

import (
	"context"
	"time"
)

// HealthStatus represents the health state of a messaging connection.
type HealthStatus struct {
	// Connected indicates if the client is connected.
	Connected bool `json:"connected"`

	// CheckedAt is when the status was taken.
	CheckedAt time.Time `json:"checked_at"`

	// Error contains any error message if unhealthy.
	Error string `json:"error,omitempty"`
}

// CheckClientHealth reports whether client is usable.
func CheckClientHealth(ctx context.Context, client Client) HealthStatus {
	status := HealthStatus{CheckedAt: time.Now()}

	if client == nil {
		status.Error = "client is nil"
		return status
	}
	if err := ctx.Err(); err != nil {
		status.Error = err.Error()
		return status
	}

	status.Connected = client.IsConnected()
	if !status.Connected {
		status.Error = "not connected to message broker"
	}
	return status
}
