package currency

import "github.com/gofiber/fiber/v2"

// GET /api/currencies
func ListCurrenciesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": true, "data": list})
	}
}
