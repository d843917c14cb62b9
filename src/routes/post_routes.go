package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/proconnect/backend/src/controllers"
)

// PostRoutes sets up posts, comments and likes
func PostRoutes(app *fiber.App, h *controllers.Handler, protect fiber.Handler) {
	app.Get("/get_all_posts", h.GetAllPosts)
	app.Post("/get_comments", h.GetComments)

	app.Post("/create_post", protect, h.CreatePost)
	app.Post("/get_my_posts", protect, h.GetMyPosts)
	app.Delete("/delete_post", protect, h.DeletePost)
	app.Post("/comment_post", protect, h.CommentPost)
	app.Delete("/delete_comment", protect, h.DeleteComment)
	app.Post("/like_post", protect, h.LikePost)
}
