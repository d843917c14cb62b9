package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/proconnect/backend/src/lib"
)

// ErrorHandler turns errors returned by handlers into the JSON envelope.
// Server side failures are logged with the request id.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"

		var apiErr *lib.APIError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &apiErr):
			status = apiErr.HTTPStatus()
			message = apiErr.Message()
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("request_id", RequestID(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("Request failed")
		}

		return lib.Failure(c, status, message)
	}
}
