package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/proconnect/backend/src/controllers"
	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/middleware"
	"github.com/proconnect/backend/src/store"
)

const bodyLimit = 16 * 1024 * 1024

type Options struct {
	FrontendURL string
	UploadsDir  string
	Log         zerolog.Logger
}

// NewApp builds the Fiber application with its middleware chain and every route
func NewApp(h *controllers.Handler, s store.Store, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "proconnect",
		BodyLimit:    bodyLimit,
		ErrorHandler: middleware.ErrorHandler(opts.Log),
	})

	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(opts.Log))
	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return lib.Respond(c, "ok", nil)
	})

	protect := middleware.ProtectRoute(s, h.Timeout())

	AuthRoutes(app, h)
	UserRoutes(app, h, protect)
	ConnectionRoutes(app, h, protect)
	PostRoutes(app, h, protect)

	// uploaded pictures, media and rendered resumes
	if opts.UploadsDir != "" {
		app.Static("/", opts.UploadsDir)
	}

	return app
}
