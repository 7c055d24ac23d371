package branch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"directory-backend/internal/apperr"
	"directory-backend/internal/assets"
	"directory-backend/internal/models"
	"directory-backend/internal/opt"
	"directory-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	db   *gorm.DB
	svc  *Service
	root string
	fx   testutil.Fixture
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	root := t.TempDir()
	am := assets.NewManager(assets.NewLocalBackend(root, "/images"), 2048, zap.NewNop())
	return &env{
		db:   db,
		svc:  NewService(db, am, zap.NewNop()),
		root: root,
		fx:   testutil.SeedFixture(t, db),
	}
}

func upload(name string, data []byte) assets.Upload {
	return assets.Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func (e *env) input(name string, images ...assets.Upload) CreateInput {
	return CreateInput{
		Name:       name,
		RegionID:   e.fx.Region.ID,
		DistrictID: e.fx.District.ID,
		BrandID:    e.fx.BrandA.ID,
		Images:     images,
	}
}

func (e *env) branchFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(e.root, "branch"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)

	var names []string
	for _, en := range entries {
		names = append(names, en.Name())
	}
	return names
}

func TestCreate_SavedAndFailedImages(t *testing.T) {
	e := newEnv(t)

	res, err := e.svc.Create(context.Background(), e.input("Chilonzor",
		upload("front.png", testutil.PNG),
		upload("notes.txt", testutil.Text),
		upload("inside.jpg", testutil.JPEG),
		upload("fake.png", testutil.Text),
	))
	require.NoError(t, err)

	assert.Len(t, res.SavedImages, 2)
	assert.Equal(t, []string{"notes.txt", "fake.png"}, res.FailedImages)
	assert.True(t, res.Partial())
	assert.NotZero(t, res.Branch.ID)
	assert.Len(t, res.Branch.Images, 2)

	var count int64
	require.NoError(t, e.db.Model(&models.BranchImage{}).Where("branch_id = ?", res.Branch.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	assert.ElementsMatch(t, res.SavedImages, e.branchFiles(t))
}

func TestCreate_AllImagesFailStillPersistsBranch(t *testing.T) {
	e := newEnv(t)

	res, err := e.svc.Create(context.Background(), e.input("Yunusobod", upload("a.gif", testutil.PNG)))
	require.NoError(t, err)

	assert.Empty(t, res.SavedImages)
	assert.Equal(t, []string{"a.gif"}, res.FailedImages)

	var b models.Branch
	require.NoError(t, e.db.First(&b, res.Branch.ID).Error)
	assert.Equal(t, "Yunusobod", b.Name)
}

func TestCreate_NoImages(t *testing.T) {
	e := newEnv(t)

	res, err := e.svc.Create(context.Background(), e.input("  Sergeli  "))
	require.NoError(t, err)
	assert.False(t, res.Partial())
	assert.Equal(t, "Sergeli", res.Branch.Name)
	assert.NotNil(t, res.SavedImages)
	assert.NotNil(t, res.FailedImages)
}

func TestCreate_ValidationErrors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		mutate func(in *CreateInput)
		field  string
	}{
		{name: "empty name", mutate: func(in *CreateInput) { in.Name = "  " }, field: "name"},
		{name: "unknown region", mutate: func(in *CreateInput) { in.RegionID = 999 }, field: "region_id"},
		{name: "unknown district", mutate: func(in *CreateInput) { in.DistrictID = 999 }, field: "district_id"},
		{name: "unknown brand", mutate: func(in *CreateInput) { in.BrandID = 999 }, field: "brand_id"},
		{name: "missing region", mutate: func(in *CreateInput) { in.RegionID = 0 }, field: "region_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := e.input("Olmazor", upload("front.png", testutil.PNG))
			tt.mutate(&in)

			_, err := e.svc.Create(context.Background(), in)
			require.Error(t, err)

			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Fields, tt.field)

			var count int64
			require.NoError(t, e.db.Model(&models.Branch{}).Count(&count).Error)
			assert.Zero(t, count)
			assert.Empty(t, e.branchFiles(t))
		})
	}
}

// failingBackend refuses every write.
type failingBackend struct{ assets.Backend }

func (failingBackend) Put(context.Context, string, []byte, string) error {
	return errors.New("disk full")
}

func TestCreate_StorageFailureIsPerImage(t *testing.T) {
	e := newEnv(t)
	am := assets.NewManager(failingBackend{assets.NewLocalBackend(e.root, "/images")}, 2048, zap.NewNop())
	svc := NewService(e.db, am, zap.NewNop())

	res, err := svc.Create(context.Background(), e.input("Mirobod", upload("front.png", testutil.PNG)))
	require.NoError(t, err)
	assert.Empty(t, res.SavedImages)
	assert.Equal(t, []string{"front.png"}, res.FailedImages)

	var count int64
	require.NoError(t, e.db.Model(&models.BranchImage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdate_NotFound(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Update(context.Background(), 404, Patch{Name: opt.Of("X")}, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// The update applies a single field per call: the first supplied one in the
// order name, brand_id, region_id, district_id. This pins that behavior.
func TestUpdate_FirstSuppliedFieldWins(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.Create(ctx, e.input("Original"))
	require.NoError(t, err)
	id := created.Branch.ID

	res, err := e.svc.Update(ctx, id, Patch{
		Name:    opt.Of("X"),
		BrandID: opt.Of(e.fx.BrandB.ID),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "X", res.Branch.Name)
	assert.Equal(t, e.fx.BrandA.ID, res.Branch.BrandID, "brand_id is ignored when name is supplied")

	res, err = e.svc.Update(ctx, id, Patch{
		BrandID:    opt.Of(e.fx.BrandB.ID),
		DistrictID: opt.Of(e.fx.District2.ID),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, e.fx.BrandB.ID, res.Branch.BrandID)
	assert.Equal(t, e.fx.District.ID, res.Branch.DistrictID, "district_id is ignored when brand_id is supplied")

	// explicit null is skipped, the next supplied field applies
	res, err = e.svc.Update(ctx, id, Patch{
		Name:       opt.Null[string](),
		DistrictID: opt.Of(e.fx.District2.ID),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "X", res.Branch.Name)
	assert.Equal(t, e.fx.District2.ID, res.Branch.DistrictID)
}

func TestUpdate_ValidatesEverySuppliedReference(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.Create(ctx, e.input("Original"))
	require.NoError(t, err)

	_, err = e.svc.Update(ctx, created.Branch.ID, Patch{
		Name:     opt.Of("X"),
		RegionID: opt.Of(uint(999)),
	}, nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var b models.Branch
	require.NoError(t, e.db.First(&b, created.Branch.ID).Error)
	assert.Equal(t, "Original", b.Name)
}

func TestUpdate_AppendsImages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.Create(ctx, e.input("Original", upload("one.png", testutil.PNG)))
	require.NoError(t, err)

	res, err := e.svc.Update(ctx, created.Branch.ID, Patch{}, []assets.Upload{
		upload("two.jpg", testutil.JPEG),
		upload("bad.png", testutil.Text),
	})
	require.NoError(t, err)

	assert.Len(t, res.SavedImages, 1)
	assert.Equal(t, []string{"bad.png"}, res.FailedImages)
	assert.Len(t, res.Branch.Images, 2)
	assert.Equal(t, "Original", res.Branch.Name)
}

func TestDelete_RemovesImagesAndRows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.Create(ctx, e.input("Doomed",
		upload("one.png", testutil.PNG),
		upload("two.png", testutil.PNG),
	))
	require.NoError(t, err)
	require.Len(t, e.branchFiles(t), 2)

	require.NoError(t, e.svc.Delete(ctx, created.Branch.ID))

	assert.Empty(t, e.branchFiles(t))
	var count int64
	require.NoError(t, e.db.Model(&models.BranchImage{}).Count(&count).Error)
	assert.Zero(t, count)
	err = e.db.First(&models.Branch{}, created.Branch.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDelete_MissingFileDoesNotBlock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.Create(ctx, e.input("Doomed", upload("one.png", testutil.PNG)))
	require.NoError(t, err)
	require.Len(t, created.SavedImages, 1)

	require.NoError(t, os.Remove(filepath.Join(e.root, "branch", created.SavedImages[0])))

	require.NoError(t, e.svc.Delete(ctx, created.Branch.ID))
	err = e.db.First(&models.Branch{}, created.Branch.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	e := newEnv(t)

	err := e.svc.Delete(context.Background(), 12345)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreate_WritesAuditLog(t *testing.T) {
	e := newEnv(t)

	res, err := e.svc.Create(context.Background(), e.input("Audited"))
	require.NoError(t, err)

	var entry models.AuditLog
	require.NoError(t, e.db.Where("entity_type = ? AND entity_id = ?", "branch", res.Branch.ID).First(&entry).Error)
	assert.Equal(t, models.AuditActionCreate, entry.Action)
}
