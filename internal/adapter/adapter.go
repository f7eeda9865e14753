package adapter

import (
	"context"

	"github.com/bogdankol/telrgam-bot-calendar/internal/flow"
)

// EventHandler receives normalized inbound events from the transport.
// Dispatch happens off the update loop so one client's slow transition
// never stalls another client's.
type EventHandler func(ctx context.Context, evt flow.Event)

// InputAdapter is a transport that produces inbound client events.
type InputAdapter interface {
	Name() string

	// Start begins listening for events (long-poll loop).
	// Must respect context cancellation.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the adapter.
	Stop(ctx context.Context) error

	// Health checks if the adapter is healthy and connected.
	Health(ctx context.Context) error
}
