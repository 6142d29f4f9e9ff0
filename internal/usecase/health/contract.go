package health

import "context"

// Pinger checks document store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks AI provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// NopPinger always reports the store as reachable. Used by the in-memory driver.
type NopPinger struct{}

// Ping implements Pinger.
func (NopPinger) Ping(context.Context) error { return nil }
