package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/proconnect/backend/src/controllers"
)

// ConnectionRoutes sets up the connection request workflow, all authenticated.
// protect is attached per route since /user also holds public routes.
func ConnectionRoutes(app *fiber.App, h *controllers.Handler, protect fiber.Handler) {
	app.Post("/user/send_connection_request", protect, h.SendConnectionRequest)
	app.Get("/user/get_connection_requests", protect, h.GetConnectionRequests)
	app.Get("/user/myConnection", protect, h.MyConnection)
	app.Post("/user/accept_connection_request", protect, h.AcceptConnectionRequest)
}
