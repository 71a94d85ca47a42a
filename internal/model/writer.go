package model

import "context"

// Writer defines a generic interface for persisting a batch of flow records.
type Writer interface {
	// WriteFlows persists the given batch. Implementations own their
	// connection handling and batching strategy.
	WriteFlows(ctx context.Context, flows []FlowRecord) error
}
