package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/proconnect/backend/src/controllers"
)

// AuthRoutes sets up registration, password login and Google sign-in
func AuthRoutes(app *fiber.App, h *controllers.Handler) {
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)
	app.Post("/auth/google", h.GoogleLogin)
}
