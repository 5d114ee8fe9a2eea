package middleware

import (
	"context"
	"net/http"
	"strings"

	"timepay/internal/domain/auth"
)

type ctxKey string

const ctxKeyOperator ctxKey = "operator"

type OperatorContext struct {
	OperatorID string
	Email      string
}

// Auth attaches the operator to the context when a valid bearer token is
// present. Requests without one pass through anonymous; handlers decide
// whether an operator is required.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyOperator, OperatorContext{
				OperatorID: claims.OperatorID,
				Email:      claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetOperator(ctx context.Context) (OperatorContext, bool) {
	operator, ok := ctx.Value(ctxKeyOperator).(OperatorContext)
	return operator, ok
}
