package core

import "context"

type headerKey struct{}

// suppressHeaderKey marks a context whose forecasts must not print the run header.
var suppressHeaderKey = headerKey{}

// WithSuppressHeader returns a context that keeps the run header off stdout.
// The MCP server uses it because stdout carries the protocol.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

func shouldSuppressHeader(ctx context.Context) bool {
	suppress, _ := ctx.Value(suppressHeaderKey).(bool)
	return suppress
}
