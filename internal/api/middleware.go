package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/apiutil"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/auth"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/api/authz"
	"github.com/atlanticsportsperformance/aspboostmobileapp-sub004/internal/ratelimit"
)

type Middleware func(http.Handler) http.Handler

type requestIDKey struct{}

func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response wrapper to capture status code
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg("Request completed")
	})
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger := log.Ctx(r.Context())
				stack := debug.Stack()
				logger.Error().
					Interface("error", err).
					Str("stack", string(stack)).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		logger := log.With().Str("request_id", requestID).Logger()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = logger.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithAuth requires a valid bearer token and stores the caller in the request context.
func WithAuth(tokens *auth.Tokens) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := tokens.UserFromRequest(r)
			if err != nil {
				logEvent := log.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path)
				if errors.Is(err, auth.ErrMissingToken) {
					logEvent.Msg("Request without bearer token")
				} else {
					logEvent.Msg("Rejected bearer token")
				}
				apiutil.WriteError(w, r, apiutil.HandlerError{
					Status:  http.StatusUnauthorized,
					Message: "Unauthorized",
					Err:     err,
				})
				return
			}

			logger := log.Ctx(r.Context()).With().
				Str("caller", user.CallerKey()).
				Int64("org_id", user.OrganizationID).
				Logger()
			ctx := logger.WithContext(authz.ContextWithUser(r.Context(), user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithRateLimit throttles booking mutations per caller and per client IP.
// Reads pass through.
func WithRateLimit(limiter *ratelimit.Limiter, trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			caller := authz.UserFromContext(r.Context()).CallerKey()
			ip := ratelimit.GetClientIP(r, trustProxy)
			res := limiter.Allow(caller, ip)
			if !res.Allowed {
				ratelimit.LogRateLimitExceeded(caller, ip, res)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				apiutil.WriteError(w, r, apiutil.HandlerError{
					Status:  http.StatusTooManyRequests,
					Message: "Too many booking requests, please wait a moment",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
