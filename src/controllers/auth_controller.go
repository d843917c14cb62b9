package controllers

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/proconnect/backend/src/googleauth"
	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
	"github.com/proconnect/backend/src/store"
)

var usernameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type sessionResponse struct {
	Token string             `json:"token"`
	User  *models.PublicUser `json:"user,omitempty"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a local account together with its empty profile
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return lib.Validation("Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if err := lib.ValidateStruct(&req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if _, err := h.store.FindUserByEmail(ctx, req.Email); err == nil {
		return lib.Conflict("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return lib.Internal(err)
	}

	taken, err := h.store.UsernameTaken(ctx, req.Username)
	if err != nil {
		return lib.Internal(err)
	}
	if taken {
		return lib.Conflict("Username already taken")
	}

	hashed, err := lib.HashPassword(req.Password)
	if err != nil {
		return lib.Internal(err)
	}

	user := models.User{
		ID:             store.NewID(),
		Name:           req.Name,
		Username:       req.Username,
		Email:          req.Email,
		Password:       hashed,
		AuthProvider:   models.AuthProviderLocal,
		ProfilePicture: models.DefaultProfilePicture,
		Active:         true,
	}
	if err := h.createAccount(c, &user); err != nil {
		return err
	}

	h.log.Info().Str("user_id", user.ID).Msg("User registered")
	return lib.MessageResponse(c, "User registered successfully")
}

// createAccount stores a new user and its profile
func (h *Handler) createAccount(c *fiber.Ctx, user *models.User) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return lib.Conflict("User already exists")
		}
		return lib.Internal(err)
	}

	profile := models.Profile{ID: store.NewID(), UserID: user.ID}
	if err := h.store.CreateProfile(ctx, &profile); err != nil {
		// a user must never exist without its profile
		if delErr := h.store.DeleteUser(ctx, user.ID); delErr != nil {
			h.log.Error().Err(delErr).Str("user_id", user.ID).Msg("Failed to roll back user without profile")
		}
		return lib.Internal(err)
	}
	return nil
}

// Login checks the password and rotates the session token
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.store.FindUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return storeErr(err, "Invalid email or password")
	}
	if !lib.CheckPassword(user.Password, req.Password) {
		return lib.Validation("Invalid email or password")
	}

	token, err := lib.NewSessionToken()
	if err != nil {
		return lib.Internal(err)
	}
	if err := h.store.SetUserToken(ctx, user.ID, token); err != nil {
		return storeErr(err, "Invalid email or password")
	}

	return lib.Respond(c, "Login successful", sessionResponse{Token: token})
}

// GoogleLogin signs in with a Google ID token, linking or creating the account
func (h *Handler) GoogleLogin(c *fiber.Ctx) error {
	var req googleLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if h.google == nil {
		return lib.Internal(errors.New("google sign-in is not configured"))
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	identity, err := h.google.Verify(ctx, req.Credential)
	if err != nil {
		if errors.Is(err, googleauth.ErrInvalidToken) {
			h.log.Debug().Err(err).Msg("Rejected Google credential")
			return lib.Validation("Google token verification failed")
		}
		return lib.Internal(err)
	}
	if !identity.EmailVerified {
		return lib.Validation("Email not verified by Google")
	}

	token, err := lib.NewSessionToken()
	if err != nil {
		return lib.Internal(err)
	}

	email := normalizeEmail(identity.Email)
	user, err := h.store.FindUserByEmailOrGoogleID(ctx, email, identity.GoogleID)
	switch {
	case err == nil:
		if user.GoogleID == nil {
			user.GoogleID = &identity.GoogleID
			user.AuthProvider = models.AuthProviderGoogle
		}
		if identity.Picture != "" && user.ProfilePicture == models.DefaultProfilePicture {
			user.ProfilePicture = identity.Picture
		}
		user.Token = token
		if err := h.store.SaveUser(ctx, user); err != nil {
			return lib.Internal(err)
		}

	case errors.Is(err, store.ErrNotFound):
		user, err = newGoogleUser(identity, email)
		if err != nil {
			return err
		}
		user.Token = token
		if err := h.createAccount(c, user); err != nil {
			return err
		}
		h.log.Info().Str("user_id", user.ID).Msg("User registered with Google")

	default:
		return lib.Internal(err)
	}

	public := user.Public()
	return lib.Respond(c, "Login successful", sessionResponse{Token: token, User: &public})
}

func newGoogleUser(identity *googleauth.Identity, email string) (*models.User, error) {
	username, err := deriveUsername(email)
	if err != nil {
		return nil, lib.Internal(err)
	}

	// google accounts never log in with a password, store an unguessable one
	secret, err := lib.RandomHex(32)
	if err != nil {
		return nil, lib.Internal(err)
	}
	hashed, err := lib.HashPassword(secret)
	if err != nil {
		return nil, lib.Internal(err)
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = username
	}
	picture := identity.Picture
	if picture == "" {
		picture = models.DefaultProfilePicture
	}

	googleID := identity.GoogleID
	return &models.User{
		ID:             store.NewID(),
		Name:           name,
		Username:       username,
		Email:          email,
		Password:       hashed,
		GoogleID:       &googleID,
		AuthProvider:   models.AuthProviderGoogle,
		ProfilePicture: picture,
		Active:         true,
	}, nil
}

// deriveUsername builds "<local part>_<8 hex chars>" from an email address
func deriveUsername(email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")
	local = usernameUnsafe.ReplaceAllString(local, "_")
	if local == "" {
		local = "user"
	}

	suffix, err := lib.RandomHex(4)
	if err != nil {
		return "", err
	}
	return local + "_" + suffix, nil
}
