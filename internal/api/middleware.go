package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/dm-service/internal/auth"
)

const identityKey = "identity"

// RequireAuth rejects requests without a valid bearer token. Write routes
// use it.
func RequireAuth(v *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := verify(v, c)
		if id == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through. Read routes use it: reads degrade to empty
// results instead of failing while a client's auth is still loading.
func OptionalAuth(v *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := verify(v, c); id != nil {
			c.Locals(identityKey, id)
		}
		return c.Next()
	}
}

// SocketAuth is OptionalAuth plus a token query-parameter fallback.
// Browser WebSocket clients cannot set headers, so the upgrade route alone
// accepts ?token=; keeping the fallback off the HTTP routes keeps bearer
// tokens out of request logs.
func SocketAuth(v *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := verify(v, c)
		if id == nil {
			if t := c.Query("token"); t != "" {
				id, _ = v.Verify(t)
			}
		}
		if id != nil {
			c.Locals(identityKey, id)
		}
		return c.Next()
	}
}

func verify(v *auth.Verifier, c *fiber.Ctx) *auth.Identity {
	token, ok := auth.FromBearer(c.Get("Authorization"))
	if !ok {
		return nil
	}
	id, err := v.Verify(token)
	if err != nil {
		return nil
	}
	return id
}

// identityFrom returns the request identity, nil for anonymous callers.
func identityFrom(c *fiber.Ctx) *auth.Identity {
	if id, ok := c.Locals(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}
