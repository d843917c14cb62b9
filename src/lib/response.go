package lib

import "github.com/gofiber/fiber/v2"

// Envelope is the shape of every JSON response
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Respond writes a successful envelope with status 200
func Respond(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// MessageResponse returns a successful envelope without data
func MessageResponse(c *fiber.Ctx, message string) error {
	return Respond(c, message, nil)
}

// Failure writes an error envelope with the given status
func Failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{
		Success: false,
		Message: message,
	})
}
