package handlers

import (
	"log"

	"mernlog/internal/middleware"
	"mernlog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CommentHandler handles HTTP requests for comments.
type CommentHandler struct {
	service  *services.CommentService
	validate *validator.Validate
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service *services.CommentService) *CommentHandler {
	return &CommentHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the comment routes with the Fiber app.
func (h *CommentHandler) RegisterRoutes(router fiber.Router, requireAuth, optionalAuth fiber.Handler) {
	commentRoutes := router.Group("/comments")
	commentRoutes.Post("/", optionalAuth, h.HandleCreateComment)
	commentRoutes.Get("/:postId", h.HandleListComments)
	commentRoutes.Put("/:id", requireAuth, h.HandleUpdateComment)
	commentRoutes.Delete("/:id", h.HandleDeleteComment)
}

// CreateCommentRequest is the body of a new comment. Author is ignored when
// the caller has a session.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
	Author  string `json:"author"`
	PostID  string `json:"postId" validate:"required"`
}

// UpdateCommentRequest is the body of a comment edit.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// HandleCreateComment attaches a comment to a post.
func (h *CommentHandler) HandleCreateComment(c *fiber.Ctx) error {
	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if ok, err := validateStruct(c, h.validate, req); !ok {
		return err
	}

	author := req.Author
	if caller := middleware.CallerID(c); caller != "" {
		author = caller
	}

	comment, err := h.service.CreateComment(c.UserContext(), req.PostID, author, req.Content)
	if err != nil {
		log.Printf("Error creating comment on post %s: %v", req.PostID, err)
		return respondError(c, err, "Could not create comment")
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// HandleListComments returns the comments of a post, oldest first.
func (h *CommentHandler) HandleListComments(c *fiber.Ctx) error {
	comments, err := h.service.ListComments(c.UserContext(), c.Params("postId"))
	if err != nil {
		return respondError(c, err, "Could not retrieve comments")
	}
	return c.JSON(comments)
}

// HandleUpdateComment edits a comment. Only its author may do so.
func (h *CommentHandler) HandleUpdateComment(c *fiber.Ctx) error {
	var req UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if ok, err := validateStruct(c, h.validate, req); !ok {
		return err
	}

	comment, err := h.service.UpdateComment(c.UserContext(), c.Params("id"), middleware.CallerID(c), req.Content)
	if err != nil {
		return respondError(c, err, "Could not update comment")
	}
	return c.JSON(comment)
}

// HandleDeleteComment removes a comment.
func (h *CommentHandler) HandleDeleteComment(c *fiber.Ctx) error {
	if err := h.service.DeleteComment(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete comment")
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
