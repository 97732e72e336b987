// Package delivery defines the contract shared by the inbound adapters of the service.
package delivery

import "context"

// Delivery is a long-running inbound adapter, such as the HTTP API server.
type Delivery interface {
	// Serve blocks until the adapter stops; a graceful shutdown returns nil.
	Serve(ctx context.Context) error
}
