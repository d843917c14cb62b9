package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/proconnect/backend/src/controllers"
)

// UserRoutes sets up account, profile, search and resume routes
func UserRoutes(app *fiber.App, h *controllers.Handler, protect fiber.Handler) {
	app.Get("/user/get_all_users", h.GetAllUsers)
	app.Get("/user/download_resume", h.DownloadResume)

	app.Post("/upload_profile_picture", protect, h.UploadProfilePicture)
	app.Post("/user_update", protect, h.UserUpdate)
	app.Get("/get_user_and_profile", protect, h.GetUserAndProfile)
	app.Post("/update_profile_data", protect, h.UpdateProfileData)
}
