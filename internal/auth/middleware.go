package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// AdminIDKey carries the authenticated admin id through the request context.
const AdminIDKey contextKey = "admin_id"

// AdminAuthMiddleware validates the Bearer JWT issued by the admin login.
func AdminAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if id, ok := claims["admin_id"].(float64); ok {
					ctx = context.WithValue(ctx, AdminIDKey, int(id))
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminID extracts the authenticated admin id from the context, 0 when absent.
func AdminID(ctx context.Context) int {
	if id, ok := ctx.Value(AdminIDKey).(int); ok {
		return id
	}
	return 0
}
