package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
	"github.com/proconnect/backend/src/store"
)

const (
	userKey      = "user"
	bearerPrefix = "Bearer "
)

// ProtectRoute resolves the bearer token in the Authorization header to a user
// and stores it in the request locals. Tokens are opaque and looked up on
// every request.
func ProtectRoute(users store.Store, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return lib.Unauthenticated("Unauthorized - no token provided")
		}

		token, ok := strings.CutPrefix(authHeader, bearerPrefix)
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return lib.Unauthenticated("Unauthorized - invalid token format")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		user, err := users.FindUserByToken(ctx, token)
		if errors.Is(err, store.ErrNotFound) {
			return lib.NotFound("User not found")
		}
		if err != nil {
			return lib.Internal(err)
		}

		user.Password = ""
		c.Locals(userKey, *user)

		return c.Next()
	}
}

// CurrentUser returns the user attached by ProtectRoute
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(userKey).(models.User)
	return user, ok
}
