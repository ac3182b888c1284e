package core

import (
	"context"
	"encoding/json"
)

// MediaConnection is the endpoint side of one host<->peer media path.
// Setup payloads are opaque JSON so the relay never has to interpret them.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close()
	IsClosed() bool
	CreateOffer() (json.RawMessage, error)
	// ApplyOffer sets the remote offer and returns the local answer.
	ApplyOffer(offer json.RawMessage) (json.RawMessage, error)
	ApplyAnswer(answer json.RawMessage) error
	// AddCandidate applies a remote network-path candidate.
	AddCandidate(candidate json.RawMessage) error
	// OnCandidate sets a callback for newly gathered local candidates.
	OnCandidate(func(json.RawMessage))
	// OnReady fires once the direct path between endpoints is usable.
	OnReady(func())
	// OnClosed sets a callback for cleanup media session.
	OnClosed(func())
}

// MediaFactory builds a MediaConnection toward the given remote endpoint.
type MediaFactory func(remote ConnID) (MediaConnection, error)
