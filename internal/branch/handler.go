package branch

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"directory-backend/internal/apperr"
	"directory-backend/internal/assets"
	"directory-backend/internal/opt"

	"github.com/gofiber/fiber/v2"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CreateBranchRequest struct {
	Name       string `json:"name"`
	RegionID   uint   `json:"region_id"`
	DistrictID uint   `json:"district_id"`
	BrandID    uint   `json:"brand_id"`
}

type UpdateBranchRequest struct {
	Name       opt.Field[string] `json:"name"`
	BrandID    opt.Field[uint]   `json:"brand_id"`
	RegionID   opt.Field[uint]   `json:"region_id"`
	DistrictID opt.Field[uint]   `json:"district_id"`
}

// ----------------------------------------
// BRANCH CRUD
// ----------------------------------------

// GET /api/branches
func ListBranchesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branches, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": true, "data": branches})
	}
}

// POST /api/branch (multipart: name, region_id, district_id, brand_id, images[])
func CreateBranchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in CreateInput

		if isMultipart(c) {
			form, err := c.MultipartForm()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid multipart form")
			}
			in, err = createInputFromForm(form)
			if err != nil {
				return err
			}
		} else {
			var body CreateBranchRequest
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
			}
			in = CreateInput{
				Name:       body.Name,
				RegionID:   body.RegionID,
				DistrictID: body.DistrictID,
				BrandID:    body.BrandID,
			}
		}

		res, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return err
		}

		status, msg := fiber.StatusCreated, "Branch created successfully"
		if res.Partial() {
			status, msg = fiber.StatusMultiStatus, "Branch created, some images were rejected"
		}
		return c.Status(status).JSON(fiber.Map{"status": true, "message": msg, "data": res})
	}
}

// POST /api/branch/:id (multipart or JSON; only the first supplied field is applied)
func UpdateBranchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return apperr.NotFound("Branch not found")
		}

		var patch Patch
		var uploads []assets.Upload

		if isMultipart(c) {
			form, err := c.MultipartForm()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid multipart form")
			}
			patch, err = patchFromForm(form)
			if err != nil {
				return err
			}
			uploads = assets.FromFileHeaders(imageFiles(form))
		} else {
			var body UpdateBranchRequest
			if len(c.Body()) > 0 {
				if err := c.BodyParser(&body); err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
				}
			}
			patch = Patch(body)
		}

		res, err := svc.Update(c.UserContext(), uint(id), patch, uploads)
		if err != nil {
			return err
		}

		status, msg := fiber.StatusOK, "Branch updated successfully"
		if res.Partial() {
			status, msg = fiber.StatusMultiStatus, "Branch updated, some images were rejected"
		}
		return c.Status(status).JSON(fiber.Map{"status": true, "message": msg, "data": res})
	}
}

// DELETE /api/branch/:id
func DeleteBranchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return apperr.NotFound("Branch not found")
		}
		if err := svc.Delete(c.UserContext(), uint(id)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// REGION REPORTS
// ----------------------------------------

// GET /api/branch/:region_id
func CountsByRegionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regionID, err := c.ParamsInt("region_id")
		if err != nil || regionID <= 0 {
			return apperr.NotFound("Region not found")
		}

		counts, err := svc.CountsByRegion(c.UserContext(), uint(regionID))
		if errors.Is(err, ErrNoBranches) {
			return c.JSON(fiber.Map{"status": false, "message": "No branches found in the region"})
		}
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": true, "data": counts})
	}
}

// GET /api/branch/:region_id/export
func ExportCountsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regionID, err := c.ParamsInt("region_id")
		if err != nil || regionID <= 0 {
			return apperr.NotFound("Region not found")
		}

		var buf bytes.Buffer
		if err := svc.ExportCountsXLSX(c.UserContext(), uint(regionID), &buf); err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, mimeXLSX)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="branches-region-%d.xlsx"`, regionID))
		return c.Send(buf.Bytes())
	}
}

// POST /api/branches/import (multipart: file)
func ImportBranchesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return apperr.Validation(apperr.Fields{"file": {"The file field is required."}})
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return apperr.Validation(apperr.Fields{"file": {"The file must be a file of type: xlsx."}})
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not open the uploaded file")
		}
		defer file.Close()

		res, err := svc.ImportXLSX(c.UserContext(), file)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": true, "message": "Import finished", "data": res})
	}
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// imageFiles accepts both "images[]" and "images" as the field name.
func imageFiles(form *multipart.Form) []*multipart.FileHeader {
	files := append([]*multipart.FileHeader{}, form.File["images[]"]...)
	return append(files, form.File["images"]...)
}

func createInputFromForm(form *multipart.Form) (CreateInput, error) {
	fields := apperr.Fields{}
	id := func(key string) uint {
		f, err := opt.FormUint(form.Value, key)
		if err != nil {
			fields.Add(key, err.Error())
			return 0
		}
		v, _ := f.Get()
		return v
	}

	name, _ := opt.FormString(form.Value, "name").Get()
	in := CreateInput{
		Name:       name,
		RegionID:   id("region_id"),
		DistrictID: id("district_id"),
		BrandID:    id("brand_id"),
		Images:     assets.FromFileHeaders(imageFiles(form)),
	}
	if len(fields) > 0 {
		return in, apperr.Validation(fields)
	}
	return in, nil
}

func patchFromForm(form *multipart.Form) (Patch, error) {
	fields := apperr.Fields{}
	id := func(key string) opt.Field[uint] {
		f, err := opt.FormUint(form.Value, key)
		if err != nil {
			fields.Add(key, err.Error())
		}
		return f
	}

	p := Patch{
		Name:       opt.FormString(form.Value, "name"),
		BrandID:    id("brand_id"),
		RegionID:   id("region_id"),
		DistrictID: id("district_id"),
	}
	if len(fields) > 0 {
		return p, apperr.Validation(fields)
	}
	return p, nil
}
