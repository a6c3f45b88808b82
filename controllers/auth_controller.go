package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"resellerdash/config"
	"resellerdash/dashboard"
	"resellerdash/middleware"
	"resellerdash/models"
	"resellerdash/sources"
	"resellerdash/utils"
)

type AuthController struct {
	Service *dashboard.Service
	Logger  *logrus.Entry
}

func NewAuthController(service *dashboard.Service, logger *logrus.Entry) *AuthController {
	return &AuthController{
		Service: service,
		Logger:  logger,
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required_without=Password,max=100"`
	Password string `json:"password" validate:"required_without=Username,max=200"`
}

type AuthResponse struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	User        models.AdminUser `json:"user"`
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	user, err := ac.Service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, sources.ErrInvalidCredentials) {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid username or password", nil)
		}
		ac.Logger.WithError(err).Error("login failed")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", nil)
	}

	token, expiresAt, err := utils.GenerateJWTToken(user)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate token", nil)
	}
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   config.AppConfig.Environment == "production",
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
	})
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.ClearCookie("access_token")
	return c.SendStatus(fiber.StatusOK)
}

func (ac *AuthController) GetCurrentAdmin(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
	}
	return c.JSON(utils.SuccessResponse(admin))
}

// UpdateProfile changes the signed-in operator's username and/or password
// and issues a token carrying the new identity.
func (ac *AuthController) UpdateProfile(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Authorization required", nil)
	}
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	user, err := ac.Service.UpdateAdmin(c.UserContext(), admin.AdminID, sources.AdminUpdate{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		status := errorStatus(err)
		if status == fiber.StatusInternalServerError {
			ac.Logger.WithError(err).WithField("admin_id", admin.AdminID).Error("profile update failed")
		}
		return utils.ErrorResponse(c, status, "Failed to update profile", err)
	}

	token, expiresAt, err := utils.GenerateJWTToken(user)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate token", nil)
	}
	return c.JSON(AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
	})
}
