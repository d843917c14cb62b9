package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
	"github.com/proconnect/backend/src/store"
)

// userUpdateRequest fields left out or empty keep their current value
type userUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Username *string `json:"username" validate:"omitempty,min=3,max=30,username"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type profileUpdateRequest struct {
	Bio             *string             `json:"bio" validate:"omitempty,max=2000"`
	CurrentPosition *string             `json:"currentPosition" validate:"omitempty,max=200"`
	PastWork        *[]models.Work      `json:"pastWork" validate:"omitempty,max=50"`
	Education       *[]models.Education `json:"education" validate:"omitempty,max=50"`
}

// UploadProfilePicture stores the image and points the user at its thumbnail
func (h *Handler) UploadProfilePicture(c *fiber.Ctx) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("profile_picture")
	if err != nil {
		return lib.Validation("profile_picture file is required")
	}

	filename, err := h.uploads.SaveImage(c, fh)
	if err != nil {
		if lib.KindOf(err) == lib.KindValidation {
			return err
		}
		return lib.Internal(err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.store.FindUserByID(ctx, current.ID)
	if err != nil {
		h.uploads.Remove(filename)
		return storeErr(err, "User not found")
	}
	user.ProfilePicture = filename
	if err := h.store.SaveUser(ctx, user); err != nil {
		h.uploads.Remove(filename)
		return storeErr(err, "User not found")
	}

	return lib.Respond(c, "Profile picture uploaded successfully", fiber.Map{"profilePicture": filename})
}

// UserUpdate changes name, username or email of the caller
func (h *Handler) UserUpdate(c *fiber.Ctx) error {
	current, err := currentUser(c)
	if err != nil {
		return err
	}

	var req userUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return lib.Validation("Invalid request body")
	}
	req.Name = optional(req.Name)
	req.Username = optional(req.Username)
	if req.Email = optional(req.Email); req.Email != nil {
		*req.Email = normalizeEmail(*req.Email)
	}
	if err := lib.ValidateStruct(&req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.store.FindUserByID(ctx, current.ID)
	if err != nil {
		return storeErr(err, "User not found")
	}

	if req.Email != nil && *req.Email != user.Email {
		if _, err := h.store.FindUserByEmail(ctx, *req.Email); err == nil {
			return lib.Conflict("Username or email already in use")
		} else if !errors.Is(err, store.ErrNotFound) {
			return lib.Internal(err)
		}
		user.Email = *req.Email
	}

	if req.Username != nil && *req.Username != user.Username {
		taken, err := h.store.UsernameTaken(ctx, *req.Username)
		if err != nil {
			return lib.Internal(err)
		}
		if taken {
			return lib.Conflict("Username or email already in use")
		}
		user.Username = *req.Username
	}

	if req.Name != nil {
		user.Name = *req.Name
	}

	if err := h.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return lib.Conflict("Username or email already in use")
		}
		return storeErr(err, "User not found")
	}

	return lib.MessageResponse(c, "User updated successfully")
}

// GetUserAndProfile returns the caller's profile with their public fields
func (h *Handler) GetUserAndProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	profile, err := h.store.FindProfileByUserID(ctx, user.ID)
	if err != nil {
		return storeErr(err, "Profile not found")
	}

	return lib.Respond(c, "", models.NewProfileView(profile, user.Public()))
}

// UpdateProfileData replaces the profile fields present in the body
func (h *Handler) UpdateProfileData(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req profileUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	profile, err := h.store.FindProfileByUserID(ctx, user.ID)
	if err != nil {
		return storeErr(err, "Profile not found")
	}

	if req.Bio != nil {
		profile.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.CurrentPosition != nil {
		profile.CurrentPosition = strings.TrimSpace(*req.CurrentPosition)
	}
	if req.PastWork != nil {
		profile.PastWork = *req.PastWork
	}
	if req.Education != nil {
		profile.Education = *req.Education
	}
	profile.Normalize()

	if err := h.store.SaveProfile(ctx, profile); err != nil {
		return storeErr(err, "Profile not found")
	}

	return lib.MessageResponse(c, "Profile updated successfully")
}

// GetAllUsers searches profiles by keyword, one page at a time
func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	page, err := lib.ParsePageRequest(c.Query("page"), c.Query("pageSize"))
	if err != nil {
		return err
	}
	keyword := strings.TrimSpace(c.Query("keyword"))

	ctx, cancel := h.ctx(c)
	defer cancel()

	profiles, total, err := h.store.SearchProfiles(ctx, keyword, page)
	if err != nil {
		return lib.Internal(err)
	}

	return lib.Respond(c, "", lib.NewPage(page, keyword, total, profiles))
}

// DownloadResume renders the resume of ?id= and returns the generated file name
func (h *Handler) DownloadResume(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("id"))
	if userID == "" {
		return lib.Validation("id is required")
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	profile, err := h.store.FindProfileByUserID(ctx, userID)
	if err != nil {
		return storeErr(err, "Resume not found")
	}
	owner, err := h.store.FindUserByID(ctx, userID)
	if err != nil {
		return storeErr(err, "Resume not found")
	}

	filename, err := h.resumes.Render(owner.Public(), profile)
	if err != nil {
		return lib.Internal(err)
	}

	return lib.Respond(c, "", filename)
}

// optional trims s and treats a blank value as absent
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	if *s = strings.TrimSpace(*s); *s == "" {
		return nil
	}
	return s
}
