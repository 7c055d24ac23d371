package auth

import (
	"directory-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Phone    string `json:"phone" form:"phone" validate:"required,min=7,max=20"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Phone    string `json:"phone" form:"phone" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// POST /api/auth/register
func RegisterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		user, token, err := svc.Register(c.UserContext(), body.Phone, body.Password)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"status":  true,
			"message": "User Registered Successfully",
			"token":   token,
			"user":    user,
		})
	}
}

// POST /api/auth/login
func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		user, token, err := svc.Login(c.UserContext(), body.Phone, body.Password)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"status":  true,
			"message": "User Logged In Successfully",
			"token":   token,
			"user":    user,
		})
	}
}

// GET /api/auth/me
func MeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "User is not authenticated")
		}

		user, err := svc.Me(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": true, "data": user})
	}
}
