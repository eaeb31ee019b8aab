package events

import "context"

// NoopPublisher drops every event. Lot commands use it when no NATS URL is
// configured, so publishing never fails a command that already succeeded.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (*NoopPublisher) Close() error { return nil }
