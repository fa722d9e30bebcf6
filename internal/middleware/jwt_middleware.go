package middleware

import (
	"context"
	"log"
	"strings"

	"mernlog/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	// TokenCookie is the name of the HTTP-only session cookie.
	TokenCookie = "token"
	// sessionKey is the Fiber Locals key holding the *services.Session.
	sessionKey = "session"
)

// TokenValidator checks a session token. *services.AuthService implements it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*services.Session, error)
}

// ExtractToken returns the session token from the token cookie, falling back
// to an "Authorization: Bearer <token>" header.
func ExtractToken(c *fiber.Ctx) string {
	if token := c.Cookies(TokenCookie); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthRequired is a Fiber middleware that rejects requests without a valid
// session token.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Login required",
			})
		}

		session, err := validator.ValidateToken(c.UserContext(), tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   "login required",
			})
		}

		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// OptionalAuth stores the session when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := ExtractToken(c); tokenString != "" {
			if session, err := validator.ValidateToken(c.UserContext(), tokenString); err == nil {
				c.Locals(sessionKey, session)
			}
		}
		return c.Next()
	}
}

// CurrentSession returns the session stored by AuthRequired or OptionalAuth,
// or nil for anonymous requests.
func CurrentSession(c *fiber.Ctx) *services.Session {
	session, _ := c.Locals(sessionKey).(*services.Session)
	return session
}

// CallerID returns the login id of the caller, or "" when anonymous.
func CallerID(c *fiber.Ctx) string {
	if session := CurrentSession(c); session != nil {
		return session.UserID
	}
	return ""
}
