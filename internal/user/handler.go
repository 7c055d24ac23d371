package user

import (
	"directory-backend/internal/apperr"
	"directory-backend/internal/opt"

	"github.com/gofiber/fiber/v2"
)

type UpdateUserRequest struct {
	Phone    opt.Field[string] `json:"phone"`
	Password opt.Field[string] `json:"password"`
}

// GET /api/users
func ListUsersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": true, "data": users})
	}
}

// GET /api/user/:phone
func GetUserByPhoneHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.GetByPhone(c.UserContext(), c.Params("phone"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"status":  true,
			"message": "User found",
			"data":    u,
		})
	}
}

// PUT /api/user/:id
func UpdateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return apperr.NotFound("User not found")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if pw, ok := body.Password.Get(); ok && pw != "" && len(pw) < 6 {
			return apperr.Validation(apperr.Fields{"password": {"The password must be at least 6 characters."}})
		}

		u, err := svc.Update(c.UserContext(), uint(id), Patch{Phone: body.Phone, Password: body.Password})
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"status":  true,
			"message": "User updated successfully",
			"data":    u,
		})
	}
}

// DELETE /api/user/:id
func DeleteUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return apperr.NotFound("User not found")
		}
		if err := svc.Delete(c.UserContext(), uint(id)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
