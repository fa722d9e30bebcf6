package handlers

import (
	"mernlog/internal/middleware"
	"mernlog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves per-user pages and profile edits.
type UserHandler struct {
	service  *services.UserService
	uploader *Uploader
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, uploader *Uploader) *UserHandler {
	return &UserHandler{service: service, uploader: uploader}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router, requireAuth, optionalAuth fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Put("/update", requireAuth, h.HandleUpdateProfile)
	userRoutes.Get("/:userId", h.HandleGetUser)
	userRoutes.Get("/:userId/posts", optionalAuth, h.HandleGetUserPosts)
	userRoutes.Get("/:userId/comments", h.HandleGetUserComments)
	userRoutes.Get("/:userId/likes", optionalAuth, h.HandleGetUserLikes)
}

// HandleGetUser returns a public profile.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	profile, err := h.service.GetUserInfo(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "Could not retrieve user")
	}
	return c.JSON(profile)
}

// HandleGetUserPosts returns the posts a user wrote.
func (h *UserHandler) HandleGetUserPosts(c *fiber.Ctx) error {
	posts, err := h.service.GetUserPosts(c.UserContext(), c.Params("userId"), middleware.CallerID(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve posts")
	}
	return c.JSON(posts)
}

// HandleGetUserComments returns the comments a user wrote.
func (h *UserHandler) HandleGetUserComments(c *fiber.Ctx) error {
	comments, err := h.service.GetUserComments(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "Could not retrieve comments")
	}
	return c.JSON(comments)
}

// HandleGetUserLikes returns the posts a user liked.
func (h *UserHandler) HandleGetUserLikes(c *fiber.Ctx) error {
	posts, err := h.service.GetUserLikedPosts(c.UserContext(), c.Params("userId"), middleware.CallerID(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve liked posts")
	}
	return c.JSON(posts)
}

// HandleUpdateProfile changes the caller's password and/or profile image.
// The image comes from the multipart field "profileImage".
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	image, err := h.uploader.Save(c, "profileImage")
	if err != nil {
		return respondError(c, err, "Could not store profile image")
	}

	profile, err := h.service.UpdateProfile(c.UserContext(), middleware.CallerID(c), services.ProfileUpdate{
		Password:     req.Password,
		ProfileImage: image,
	})
	if err != nil {
		return respondError(c, err, "Could not update profile")
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    profile,
	})
}
