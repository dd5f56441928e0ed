package requestid

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

const Header = "X-Request-ID"

type ctxKey struct{}

// New returns a UUIDv7 string (time-ordered, millisecond precision).
func New() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func From(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Ensure returns ctx carrying a request id, reusing an incoming one when it
// is well formed.
func Ensure(ctx context.Context, incoming string) (context.Context, string) {
	incoming = strings.TrimSpace(incoming)
	if incoming != "" && len(incoming) <= 128 && isToken(incoming) {
		return With(ctx, incoming), incoming
	}
	if id, ok := From(ctx); ok {
		return ctx, id
	}
	id := New()
	return With(ctx, id), id
}

func isToken(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_', ch == '.':
		default:
			return false
		}
	}
	return true
}
