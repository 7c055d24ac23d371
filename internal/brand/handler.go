package brand

import (
	"directory-backend/internal/apperr"
	"directory-backend/internal/assets"
	"directory-backend/internal/models"
	"directory-backend/internal/opt"

	"github.com/gofiber/fiber/v2"
)

type BrandResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Image     *string `json:"image"`
	ImageURL  string  `json:"image_url,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func toResponse(svc *Service, b models.Brand) BrandResponse {
	return BrandResponse{
		ID:        b.ID,
		Name:      b.Name,
		Image:     b.Image,
		ImageURL:  svc.ImageURL(b),
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/brands
func ListBrandsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		brands, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}

		res := make([]BrandResponse, 0, len(brands))
		for _, b := range brands {
			res = append(res, toResponse(svc, b))
		}
		return c.JSON(fiber.Map{"status": true, "data": res})
	}
}

// POST /api/brand (multipart: name, image?)
func CreateBrandHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := svc.Create(c.UserContext(), c.FormValue("name"), formImage(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"status":  true,
			"message": "Brand created successfully",
			"data":    toResponse(svc, *b),
		})
	}
}

// POST /api/brand/:id (multipart: name?, image?)
func UpdateBrandHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return apperr.NotFound("Brand not found")
		}

		name := opt.Absent[string]()
		if form, err := c.MultipartForm(); err == nil {
			name = opt.FormString(form.Value, "name")
		} else if v := c.FormValue("name"); v != "" {
			name = opt.Of(v)
		}

		b, err := svc.Update(c.UserContext(), uint(id), name, formImage(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"status":  true,
			"message": "Brand updated successfully",
			"data":    toResponse(svc, *b),
		})
	}
}

// DELETE /api/brand/:id
func DeleteBrandHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return apperr.NotFound("Brand not found")
		}
		if err := svc.Delete(c.UserContext(), uint(id)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func formImage(c *fiber.Ctx) *assets.Upload {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	up := assets.FromFileHeader(fh)
	return &up
}
