package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	jwttoken "kindred/internal/jwt_token"
)

// TokenValidator is the seam between the router and the JWT implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

type contextKeyParticipantID struct{}
type contextKeyRole struct{}

// ParticipantID retrieves the authenticated participant from the context.
func ParticipantID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyParticipantID{}).(string)
	return id
}

// Role retrieves the authenticated role from the context.
func Role(ctx context.Context) string {
	role, _ := ctx.Value(contextKeyRole{}).(string)
	return role
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}

// RequireAuth validates the bearer token and stores the participant identity
// in the request context.
func RequireAuth(validator TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("rejected token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyParticipantID{}, claims.ParticipantID())
			ctx = context.WithValue(ctx, contextKeyRole{}, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on the authenticated role. Used for the safety
// collaborator's slashing endpoint.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Role(r.Context()) != role {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
