// Package requestctx carries per-request metadata through context:
// the operator's bearer credential and the request id used for tracing.
package requestctx

import "context"

type contextKey string

const (
	tokenKey     contextKey = "auth_token"
	requestIDKey contextKey = "request_id"
)

// HeaderRequestID is the header used to propagate request ids to the
// POS core.
const HeaderRequestID = "X-Request-ID"

// WithToken stores the operator's bearer token. Authentication itself is
// owned by the POS core; the terminal only forwards the credential.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// Token returns the bearer token, if any.
func Token(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

// WithRequestID stores the request id for tracing.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id, if any.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
