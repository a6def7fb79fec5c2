package sinks

import "context"

// Sink forwards detection result events to a downstream destination
// (HTTP endpoint, SQS, SNS, Pub/Sub).
type Sink interface {
	ID() string
	Type() string
	Send(ctx context.Context, evt Event) error
}
