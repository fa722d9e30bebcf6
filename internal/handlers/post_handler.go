package handlers

import (
	"log"

	"mernlog/internal/middleware"
	"mernlog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PostHandler handles HTTP requests for posts and likes.
type PostHandler struct {
	service  *services.PostService
	uploader *Uploader
	validate *validator.Validate
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service *services.PostService, uploader *Uploader) *PostHandler {
	return &PostHandler{
		service:  service,
		uploader: uploader,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the post routes. The singular /post and /like
// paths are aliases kept for older clients.
func (h *PostHandler) RegisterRoutes(router fiber.Router, requireAuth, optionalAuth fiber.Handler) {
	postRoutes := router.Group("/posts")
	postRoutes.Get("/", optionalAuth, h.HandleListPosts)
	postRoutes.Post("/", requireAuth, h.HandleCreatePost)
	postRoutes.Get("/:id", optionalAuth, h.HandleGetPost)
	postRoutes.Put("/:id", requireAuth, h.HandleUpdatePost)
	postRoutes.Delete("/:id", h.HandleDeletePost)
	postRoutes.Post("/:id/like", requireAuth, h.HandleToggleLike)

	router.Post("/post", requireAuth, h.HandleCreatePost)
	router.Get("/post/:id", optionalAuth, h.HandleGetPost)
	router.Put("/post/:id", requireAuth, h.HandleUpdatePost)
	router.Delete("/post/:id", h.HandleDeletePost)
	router.Post("/like/:id", requireAuth, h.HandleToggleLike)
}

// PostRequest is the body of create and update. Multipart requests may also
// carry a "cover" file.
type PostRequest struct {
	Title   string `json:"title" form:"title" validate:"required,max=200"`
	Summary string `json:"summary" form:"summary" validate:"required,max=500"`
	Content string `json:"content" form:"content" validate:"required"`
}

// HandleListPosts returns one page of the feed.
func (h *PostHandler) HandleListPosts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	limit := c.QueryInt("limit", services.DefaultPageLimit)

	result, err := h.service.ListPosts(c.UserContext(), page, limit, middleware.CallerID(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve posts")
	}
	return c.JSON(result)
}

// HandleGetPost returns a single post with its derived fields.
func (h *PostHandler) HandleGetPost(c *fiber.Ctx) error {
	view, err := h.service.GetPostView(c.UserContext(), c.Params("id"), middleware.CallerID(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve post")
	}
	return c.JSON(view)
}

func (h *PostHandler) parseInput(c *fiber.Ctx) (*services.PostInput, bool, error) {
	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, false, invalidBody(c, err)
	}
	if ok, err := validateStruct(c, h.validate, req); !ok {
		return nil, false, err
	}
	cover, err := h.uploader.Save(c, "cover")
	if err != nil {
		return nil, false, respondError(c, err, "Could not store cover image")
	}
	return &services.PostInput{
		Title:   req.Title,
		Summary: req.Summary,
		Content: req.Content,
		Cover:   cover,
	}, true, nil
}

// HandleCreatePost creates a post written by the caller.
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	in, ok, err := h.parseInput(c)
	if !ok {
		return err
	}

	post, err := h.service.CreatePost(c.UserContext(), middleware.CallerID(c), *in)
	if err != nil {
		log.Printf("Error creating post: %v", err)
		return respondError(c, err, "Could not create post")
	}
	return c.JSON(fiber.Map{
		"message": "Post created",
		"post":    post,
	})
}

// HandleUpdatePost edits a post. Only its author may do so.
func (h *PostHandler) HandleUpdatePost(c *fiber.Ctx) error {
	in, ok, err := h.parseInput(c)
	if !ok {
		return err
	}

	post, err := h.service.UpdatePost(c.UserContext(), c.Params("id"), middleware.CallerID(c), *in)
	if err != nil {
		return respondError(c, err, "Could not update post")
	}
	return c.JSON(fiber.Map{
		"message": "Post updated",
		"post":    post,
	})
}

// HandleDeletePost removes a post and its comments.
func (h *PostHandler) HandleDeletePost(c *fiber.Ctx) error {
	postID := c.Params("id")
	if err := h.service.DeletePost(c.UserContext(), postID); err != nil {
		return respondError(c, err, "Could not delete post")
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// HandleToggleLike likes or unlikes a post for the caller.
func (h *PostHandler) HandleToggleLike(c *fiber.Ctx) error {
	result, err := h.service.ToggleLike(c.UserContext(), c.Params("id"), middleware.CallerID(c))
	if err != nil {
		return respondError(c, err, "Could not toggle like")
	}
	return c.JSON(result)
}
