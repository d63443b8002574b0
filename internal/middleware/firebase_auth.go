package middleware

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/faith-connect/functions/internal/callable"
	"github.com/anonto42/faith-connect/functions/internal/services"
	"github.com/labstack/echo/v4"
)

const callerKey = "caller"

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseCallerMiddleware resolves the caller of a callable function.
// A request without an Authorization header proceeds with no caller, leaving
// the decision to the function. A present but invalid token is rejected.
func FirebaseCallerMiddleware(verifier IDTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return callable.WriteError(c, callable.NewError(callable.Unauthenticated, "Authorization header must be in Bearer format"))
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), tokenParts[1])
			if err != nil {
				return callable.WriteError(c, callable.NewError(callable.Unauthenticated, "Invalid or expired ID token"))
			}

			c.Set("firebaseUID", token.UID)
			c.Set(callerKey, &services.Caller{UID: token.UID})
			return next(c)
		}
	}
}

// CallerFromContext returns the verified caller, or nil for anonymous requests
func CallerFromContext(c echo.Context) *services.Caller {
	caller, _ := c.Get(callerKey).(*services.Caller)
	return caller
}
