package handlers

import (
	"log"
	"time"

	"mernlog/internal/middleware"
	"mernlog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const oauthStateCookie = "oauth_state"

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	Secure bool
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	cookie      CookieConfig
	frontendURL string
}

// NewAuthHandler creates a new AuthHandler. frontendURL is where the Kakao
// callback redirects after login.
func NewAuthHandler(authService *services.AuthService, cookie CookieConfig, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		cookie:      cookie,
		frontendURL: frontendURL,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
// The root-level aliases keep the paths older clients use.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/profile", h.HandleProfile)
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Delete("/delete-account", requireAuth, h.HandleDeleteAccount)
	authRoutes.Get("/check-duplicate", h.HandleCheckDuplicate)
	authRoutes.Get("/kakao", h.HandleKakaoLogin)
	authRoutes.Get("/kakao/callback", h.HandleKakaoCallback)

	router.Post("/register", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
	router.Get("/profile", h.HandleProfile)
	router.Post("/logout", h.HandleLogout)
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	ID       string `json:"id" form:"id" validate:"required,min=2,max=100"`
	Password string `json:"password" form:"password" validate:"required,min=4,max=72"`
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authService.TokenDuration() / time.Second),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if ok, err := validateStruct(c, h.validate, req); !ok {
		return err
	}

	user, err := h.authService.Register(c.UserContext(), req.ID, req.Password)
	if err != nil {
		log.Printf("Error registering user %s: %v", req.ID, err)
		return respondError(c, err, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"id":      user.UserID,
	})
}

// HandleLogin authenticates a user and sets the session cookie.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if req.ID == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   "id and password are required",
		})
	}

	token, user, err := h.authService.Login(c.UserContext(), req.ID, req.Password)
	if err != nil {
		log.Printf("Error during login for user %s: %v", req.ID, err)
		return respondError(c, err, "Authentication failed")
	}

	h.setSessionCookie(c, token)
	return c.JSON(fiber.Map{
		"_id":    user.ID,
		"id":     user.UserID,
		"userId": user.UserID,
		"token":  token,
	})
}

// HandleProfile returns the caller's session. Anonymous callers get an error
// payload with status 200, which the frontend treats as "logged out".
func (h *AuthHandler) HandleProfile(c *fiber.Ctx) error {
	token := middleware.ExtractToken(c)
	if token == "" {
		return c.JSON(fiber.Map{"error": "login required"})
	}
	session, err := h.authService.ValidateToken(c.UserContext(), token)
	if err != nil {
		return c.JSON(fiber.Map{"error": "login required"})
	}
	return c.JSON(session)
}

// HandleLogout revokes the session token and clears the cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.ExtractToken(c)); err != nil {
		log.Printf("Error revoking token on logout: %v", err)
	}
	h.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// HandleDeleteAccount removes the caller's account and ends the session.
func (h *AuthHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	session := middleware.CurrentSession(c)
	if err := h.authService.DeleteAccount(c.UserContext(), session.ID); err != nil {
		return respondError(c, err, "Could not delete account")
	}
	if err := h.authService.Logout(c.UserContext(), middleware.ExtractToken(c)); err != nil {
		log.Printf("Error revoking token of deleted account %s: %v", session.UserID, err)
	}
	h.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Account deleted"})
}

// HandleCheckDuplicate reports whether a login id is taken.
func (h *AuthHandler) HandleCheckDuplicate(c *fiber.Ctx) error {
	exists, err := h.authService.CheckDuplicate(c.UserContext(), c.Query("id"))
	if err != nil {
		return respondError(c, err, "Could not check id")
	}
	return c.JSON(fiber.Map{"exists": exists})
}

// HandleKakaoLogin redirects to the Kakao consent page.
func (h *AuthHandler) HandleKakaoLogin(c *fiber.Ctx) error {
	state := uuid.New().String()
	url, err := h.authService.KakaoLoginURL(state)
	if err != nil {
		return respondError(c, err, "Kakao login unavailable")
	}
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/kakao",
		MaxAge:   int((10 * time.Minute) / time.Second),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(url, fiber.StatusFound)
}

// HandleKakaoCallback finishes the Kakao login and redirects to the frontend.
func (h *AuthHandler) HandleKakaoCallback(c *fiber.Ctx) error {
	if errCode := c.Query("error"); errCode != "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Kakao login failed",
			"error":   errCode,
		})
	}
	if state := c.Cookies(oauthStateCookie); state == "" || state != c.Query("state") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Kakao login failed",
			"error":   "state mismatch",
		})
	}

	token, user, err := h.authService.LoginWithKakao(c.UserContext(), c.Query("code"))
	if err != nil {
		log.Printf("Kakao login failed: %v", err)
		return respondError(c, err, "Kakao login failed")
	}
	log.Printf("Kakao user %s logged in", user.UserID)

	c.ClearCookie(oauthStateCookie)
	h.setSessionCookie(c, token)
	return c.Redirect(h.frontendURL, fiber.StatusFound)
}
