package influxdb

import "errors"

// Errors returned by Connect and HealthCheck.
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("decision metrics: influxdb disabled")

	// ErrConnectionFailed wraps a failed or unhealthy startup ping.
	ErrConnectionFailed = errors.New("decision metrics: influxdb unreachable")

	// ErrNotConnected is reported by HealthCheck once the client is closed.
	ErrNotConnected = errors.New("decision metrics: influxdb client closed")
)
