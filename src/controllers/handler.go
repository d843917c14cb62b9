package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/proconnect/backend/src/googleauth"
	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/middleware"
	"github.com/proconnect/backend/src/models"
	"github.com/proconnect/backend/src/resume"
	"github.com/proconnect/backend/src/store"
)

const defaultTimeout = 10 * time.Second

// Handler carries the dependencies every controller needs
type Handler struct {
	store   store.Store
	uploads *lib.Uploads
	resumes *resume.Renderer
	google  googleauth.Verifier
	log     zerolog.Logger
	timeout time.Duration
}

func NewHandler(s store.Store, uploads *lib.Uploads, google googleauth.Verifier, log zerolog.Logger, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Handler{
		store:   s,
		uploads: uploads,
		resumes: resume.NewRenderer(uploads),
		google:  google,
		log:     log,
		timeout: timeout,
	}
}

// Timeout bounds every store call made on behalf of a request
func (h *Handler) Timeout() time.Duration {
	return h.timeout
}

func (h *Handler) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}

func currentUser(c *fiber.Ctx) (models.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return models.User{}, lib.Unauthenticated("Authorization token required")
	}
	return user, nil
}

// parseBody decodes the request body into req and runs its validation rules
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return lib.Validation("Invalid request body")
	}
	return lib.ValidateStruct(req)
}

// storeErr maps store failures to client errors. notFound is used when the
// record is missing, anything unexpected becomes an internal error.
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return lib.NotFound(notFound)
	default:
		return lib.Internal(err)
	}
}
