package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
	"github.com/proconnect/backend/src/store"
)

const acceptTypeAccept = "accept"

type sendConnectionRequest struct {
	ConnectionID string `json:"connectionId" validate:"required"`
}

type respondConnectionRequest struct {
	RequestID  string `json:"requestId" validate:"required"`
	AcceptType string `json:"accept_type" validate:"required,oneof=accept reject"`
}

// SendConnectionRequest creates a pending request from the caller to connectionId
func (h *Handler) SendConnectionRequest(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req sendConnectionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	targetID := strings.TrimSpace(req.ConnectionID)

	if targetID == user.ID {
		return lib.Validation("You can't send a connection request to yourself")
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	target, err := h.store.FindUserByID(ctx, targetID)
	if err != nil {
		return storeErr(err, "Connection user not found")
	}

	request := models.ConnectionRequest{
		ID:           store.NewID(),
		UserID:       user.ID,
		ConnectionID: target.ID,
	}
	// the unique (userId, connectionId) index rejects duplicates, even concurrent ones
	if err := h.store.CreateConnection(ctx, &request); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return lib.Conflict("Connection request already sent")
		}
		return lib.Internal(err)
	}

	h.log.Debug().
		Str("request_id", request.ID).
		Str("from", user.ID).
		Str("to", target.ID).
		Msg("Connection request sent")

	return lib.Respond(c, "Connection request sent successfully",
		models.NewConnectionView(&request, user.Public(), target.Public()))
}

// GetConnectionRequests lists the requests the caller has sent
func (h *Handler) GetConnectionRequests(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	connections, err := h.store.ListOutgoingConnections(ctx, user.ID)
	if err != nil {
		return lib.Internal(err)
	}
	return lib.Respond(c, "", connections)
}

// MyConnection lists the requests other users have sent to the caller
func (h *Handler) MyConnection(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	connections, err := h.store.ListIncomingConnections(ctx, user.ID)
	if err != nil {
		return lib.Internal(err)
	}
	return lib.Respond(c, "", connections)
}

// AcceptConnectionRequest lets the target of a pending request accept or
// reject it. A request is answered at most once.
func (h *Handler) AcceptConnectionRequest(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req respondConnectionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	request, err := h.store.FindConnectionByID(ctx, strings.TrimSpace(req.RequestID))
	if err != nil {
		return storeErr(err, "Connection request not found")
	}
	if request.ConnectionID != user.ID {
		return lib.Unauthorized("Only the recipient can respond to this connection request")
	}
	if request.State() != models.ConnectionStatusPending {
		return lib.Conflict("Connection request has already been answered")
	}

	accepted := req.AcceptType == acceptTypeAccept
	if err := h.store.RespondToConnection(ctx, request.ID, accepted); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// answered by a concurrent call between the load and the update
			return lib.Conflict("Connection request has already been answered")
		}
		return lib.Internal(err)
	}

	return lib.MessageResponse(c, "Connection request updated successfully")
}
