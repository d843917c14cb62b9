package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
	"github.com/proconnect/backend/src/store"
)

const unlikeMsg = "unlike"

type createPostRequest struct {
	Body string `json:"body" form:"body" validate:"required,max=5000"`
}

type postIDRequest struct {
	PostID string `json:"post_id" validate:"required"`
}

type commentPostRequest struct {
	PostID  string `json:"post_id" validate:"required"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

type deleteCommentRequest struct {
	CommentID string `json:"comment_id" validate:"required"`
}

type likePostRequest struct {
	PostID string `json:"post_id" validate:"required"`
	Msg    string `json:"msg" validate:"required,oneof=like unlike"`
}

// CreatePost publishes a post for the caller, with an optional media upload
func (h *Handler) CreatePost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return lib.Validation("Invalid request body")
	}
	req.Body = strings.TrimSpace(req.Body)
	if err := lib.ValidateStruct(&req); err != nil {
		return err
	}

	post := models.Post{
		ID:     store.NewID(),
		UserID: user.ID,
		Body:   req.Body,
		Active: true,
	}

	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["media"]; len(files) > 0 {
			filename, err := h.uploads.Save(c, files[0])
			if err != nil {
				return lib.Internal(err)
			}
			post.Media = filename
			post.FileType = lib.MediaKind(files[0])
		}
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.store.CreatePost(ctx, &post); err != nil {
		h.uploads.Remove(post.Media)
		return lib.Internal(err)
	}

	return lib.Respond(c, "Post created successfully", models.NewPostView(&post, user.Public()))
}

// GetAllPosts lists every post, newest first
func (h *Handler) GetAllPosts(c *fiber.Ctx) error {
	return h.listPosts(c, "")
}

// GetMyPosts lists the caller's posts, newest first
func (h *Handler) GetMyPosts(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return h.listPosts(c, user.ID)
}

func (h *Handler) listPosts(c *fiber.Ctx, ownerID string) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	posts, err := h.store.ListPosts(ctx, ownerID)
	if err != nil {
		return lib.Internal(err)
	}
	return lib.Respond(c, "", posts)
}

// DeletePost removes one of the caller's posts along with its comments
func (h *Handler) DeletePost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req postIDRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	post, err := h.store.FindPostByID(ctx, req.PostID)
	if err != nil {
		return storeErr(err, "Post not found")
	}
	if post.UserID != user.ID {
		return lib.Unauthorized("Unauthorized")
	}

	if err := h.store.DeletePost(ctx, post.ID); err != nil {
		return storeErr(err, "Post not found")
	}

	return lib.MessageResponse(c, "Post deleted")
}

// CommentPost adds a comment by the caller to an existing post
func (h *Handler) CommentPost(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req commentPostRequest
	if err := c.BodyParser(&req); err != nil {
		return lib.Validation("Invalid request body")
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if err := lib.ValidateStruct(&req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	post, err := h.store.FindPostByID(ctx, req.PostID)
	if err != nil {
		return storeErr(err, "Post not found")
	}

	comment := models.Comment{
		ID:     store.NewID(),
		PostID: post.ID,
		UserID: user.ID,
		Body:   req.Comment,
	}
	if err := h.store.CreateComment(ctx, &comment); err != nil {
		return lib.Internal(err)
	}

	return lib.Respond(c, "Comment added successfully", models.NewCommentView(&comment, user.Public()))
}

// GetComments lists the comments of a post, oldest first
func (h *Handler) GetComments(c *fiber.Ctx) error {
	var req postIDRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	comments, err := h.store.ListComments(ctx, req.PostID)
	if err != nil {
		return lib.Internal(err)
	}
	return lib.Respond(c, "", comments)
}

// DeleteComment removes one of the caller's comments
func (h *Handler) DeleteComment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req deleteCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	comment, err := h.store.FindCommentByID(ctx, req.CommentID)
	if err != nil {
		return storeErr(err, "Comment not found")
	}
	if comment.UserID != user.ID {
		return lib.Unauthorized("Unauthorized - You can only delete your own comments")
	}

	if err := h.store.DeleteComment(ctx, comment.ID); err != nil {
		return storeErr(err, "Comment not found")
	}

	return lib.MessageResponse(c, "Comment deleted successfully")
}

// LikePost adds or removes one like. The counter never drops below zero.
func (h *Handler) LikePost(c *fiber.Ctx) error {
	if _, err := currentUser(c); err != nil {
		return err
	}

	var req likePostRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	delta, message := int64(1), "Post liked successfully"
	if req.Msg == unlikeMsg {
		delta, message = -1, "Post unliked successfully"
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	post, err := h.store.AddLikes(ctx, req.PostID, delta)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return lib.NotFound("Post not found")
		}
		return lib.Internal(err)
	}

	return lib.Respond(c, message, fiber.Map{"post_id": post.ID, "likes": post.Likes})
}
