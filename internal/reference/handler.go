package reference

import (
	"directory-backend/internal/apperr"
	"directory-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type CreateDistrictRequest struct {
	Name     string `json:"name" form:"name" validate:"required,max=255"`
	RegionID uint   `json:"region_id" form:"region_id" validate:"required,gt=0"`
}

// GET /api/regions
func ListRegionsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regions, err := svc.ListRegions(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": true, "data": regions})
	}
}

// GET /api/districts?region_id=
func ListDistrictsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regionID := c.QueryInt("region_id", 0)
		if regionID < 0 {
			return apperr.Validation(apperr.Fields{"region_id": {"The region id must be an integer."}})
		}

		districts, err := svc.ListDistricts(c.UserContext(), uint(regionID))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": true, "data": districts})
	}
}

// POST /api/district
func CreateDistrictHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateDistrictRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		d, err := svc.CreateDistrict(c.UserContext(), body.Name, body.RegionID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"status":  true,
			"message": "District created successfully",
			"data":    d,
		})
	}
}
