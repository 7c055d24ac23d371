package branch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"directory-backend/internal/apperr"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Branches"

// ExportCountsXLSX writes the region's branch counts as a spreadsheet. A
// region without branches yields a sheet with headers only.
func (s *Service) ExportCountsXLSX(ctx context.Context, regionID uint, w io.Writer) error {
	region, err := s.findRegion(ctx, regionID)
	if err != nil {
		return err
	}
	rows, err := s.countRows(ctx, region.ID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &[]interface{}{"Region", region.Name}); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A3", &[]interface{}{"District", "Brand", "Branches"}); err != nil {
		return err
	}

	line := 4
	for _, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &[]interface{}{r.DistrictName, r.BrandName, r.Total}); err != nil {
			return err
		}
		line++
	}

	if err := f.SetColWidth(exportSheet, "A", "B", 28); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

type ImportRowError struct {
	Row    int           `json:"row"`
	Errors apperr.Fields `json:"errors"`
}

type ImportResult struct {
	Created []uint           `json:"created"`
	Failed  []ImportRowError `json:"failed"`
}

// ImportXLSX creates one branch per row of the first sheet. Columns are name,
// region_id, district_id, brand_id; a header row starting with "name" is
// skipped. Rows fail independently.
func (s *Service) ImportXLSX(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation(apperr.Fields{"file": {"The file must be a valid xlsx document."}})
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation(apperr.Fields{"file": {"The file has no sheets."}})
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	res := &ImportResult{Created: []uint{}, Failed: []ImportRowError{}}
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "name") {
			continue
		}

		in, fields := importInput(row)
		if len(fields) > 0 {
			res.Failed = append(res.Failed, ImportRowError{Row: i + 1, Errors: fields})
			continue
		}

		created, err := s.Create(ctx, in)
		var appErr *apperr.Error
		switch {
		case errors.As(err, &appErr) && appErr.Kind == apperr.KindValidation:
			res.Failed = append(res.Failed, ImportRowError{Row: i + 1, Errors: appErr.Fields})
		case err != nil:
			return res, err
		default:
			res.Created = append(res.Created, created.Branch.ID)
		}
	}
	return res, nil
}

func importInput(row []string) (CreateInput, apperr.Fields) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	fields := apperr.Fields{}
	id := func(i int, field string) uint {
		raw := cell(i)
		if raw == "" {
			return 0
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fields.Add(field, fmt.Sprintf("The %s must be an integer.", strings.ReplaceAll(field, "_", " ")))
			return 0
		}
		return uint(n)
	}

	in := CreateInput{
		Name:       cell(0),
		RegionID:   id(1, "region_id"),
		DistrictID: id(2, "district_id"),
		BrandID:    id(3, "brand_id"),
	}
	return in, fields
}
