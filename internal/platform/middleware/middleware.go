// Package middleware carries the request-scoped context values every engine
// operation reads: request ID, acting staff member, request time.
package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"benefits/pkg/requestcontext"
)

// ActorHeader names the header the presentation layer sets after resolving
// the staff member through the identity directory. The engine trusts it for
// attribution only; it grants nothing.
const ActorHeader = "X-Actor"

// RequestIDHeader carries a caller-supplied correlation ID; one is generated
// when absent.
const RequestIDHeader = "X-Request-Id"

// RequestContext stamps request ID, actor, and request time onto the context.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())
		if actor := r.Header.Get(ActorHeader); actor != "" {
			ctx = requestcontext.WithActor(ctx, actor)
		}

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
