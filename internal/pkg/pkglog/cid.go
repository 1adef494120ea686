package pkglog

import "context"

type correlationKey struct{}

// CorrelationID returns the id attached by WithCorrelationID. It is forwarded
// to the compression service so one upload can be traced across both logs.
func CorrelationID(ctx context.Context) (string, bool) {
	cid, ok := ctx.Value(correlationKey{}).(string)
	return cid, ok && cid != ""
}

// WithCorrelationID returns a copy of ctx carrying cid. An empty cid leaves
// ctx untouched.
func WithCorrelationID(ctx context.Context, cid string) context.Context {
	if cid == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, cid)
}
