package storefront_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sagarc03/storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	service *storefront.AdminService
	repo    *SpyAdminRepo
	remote  *memStore
	local   *memStore
}

func newAdminFixture(t *testing.T) adminFixture {
	t.Helper()
	remote, local := newMemStore(storefront.BackendRemote), newMemStore(storefront.BackendLocal)
	pipeline, cleaner := newPipeline(remote, local)
	repo := new(SpyAdminRepo)

	s, err := storefront.NewAdminService(repo, pipeline, cleaner, plainHasher{}, staticTokens{}, storefront.AdminServiceConfig{})
	require.NoError(t, err, "new admin service")

	return adminFixture{service: s, repo: repo, remote: remote, local: local}
}

var anyAdmin = mock.AnythingOfType("storefront.Admin")

func TestAdminService_Register(t *testing.T) {
	input := storefront.RegisterInput{Name: "Ada Lovelace", Email: " Ada@Example.com ", Password: "correct-horse"}

	t.Run("remote unreachable stores the picture locally", func(t *testing.T) {
		f := newAdminFixture(t)
		f.remote.failAll = true
		ctx := context.Background()

		f.repo.On("FindByEmail", ctx, "ada@example.com").Return(storefront.Admin{}, storefront.ErrNotFound)
		f.repo.On("Create", ctx, anyAdmin).Return(echoAdmin, nil)

		files := []storefront.UploadFile{imageFile("picture", "ada.jpg", "image/jpeg", 2<<20)}
		result, err := f.service.Register(ctx, input, files)
		require.NoError(t, err)

		require.NotNil(t, result.PictureInfo)
		assert.Equal(t, storefront.BackendLocal, result.PictureInfo.Storage)
		assert.Equal(t, *result.PictureInfo, result.Admin.Picture)
		assert.Equal(t, "ada@example.com", result.Admin.Email)
		assert.Equal(t, storefront.RoleAdmin, result.Admin.Role)
		assert.True(t, result.Admin.IsActive)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, 1, f.local.objectCount())
		f.repo.AssertExpectations(t)
	})

	t.Run("without a picture", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByEmail", ctx, "ada@example.com").Return(storefront.Admin{}, storefront.ErrNotFound)
		f.repo.On("Create", ctx, anyAdmin).Return(echoAdmin, nil)

		result, err := f.service.Register(ctx, input, nil)
		require.NoError(t, err)
		assert.Nil(t, result.PictureInfo)
		assert.True(t, result.Admin.Picture.IsZero())
		assert.Equal(t, "plain$correct-horse", result.Admin.PasswordHash)
	})

	t.Run("duplicate email is a conflict and uploads nothing", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByEmail", ctx, "ada@example.com").Return(storefront.Admin{ID: uuid.New()}, nil)

		files := []storefront.UploadFile{imageFile("picture", "ada.jpg", "image/jpeg", 10)}
		_, err := f.service.Register(ctx, input, files)
		assert.ErrorIs(t, err, storefront.ErrConflict)
		assert.Equal(t, 0, f.remote.calls)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("create failure discards the uploaded picture", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByEmail", ctx, "ada@example.com").Return(storefront.Admin{}, storefront.ErrNotFound)
		f.repo.On("Create", ctx, anyAdmin).Return(storefront.Admin{}, storefront.ErrConflict)

		files := []storefront.UploadFile{imageFile("picture", "ada.jpg", "image/jpeg", 10)}
		_, err := f.service.Register(ctx, input, files)
		assert.ErrorIs(t, err, storefront.ErrConflict)
		assert.Equal(t, 0, f.remote.objectCount())
		assert.Len(t, f.remote.deleted(), 1)
	})

	t.Run("invalid fields", func(t *testing.T) {
		f := newAdminFixture(t)

		_, err := f.service.Register(context.Background(), storefront.RegisterInput{Name: "A", Email: "nope", Password: "short"}, nil)
		assert.ErrorIs(t, err, storefront.ErrInvalidInput)
		assert.Contains(t, err.Error(), "email")
		assert.Contains(t, err.Error(), "password")
	})

	t.Run("oversized picture is rejected before anything is stored", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByEmail", ctx, "ada@example.com").Return(storefront.Admin{}, storefront.ErrNotFound)

		files := []storefront.UploadFile{imageFile("picture", "ada.jpg", "image/jpeg", 6<<20)}
		_, err := f.service.Register(ctx, input, files)
		assert.ErrorIs(t, err, storefront.ErrInvalidInput)
		assert.Equal(t, 0, f.remote.calls+f.local.calls)
	})
}

func TestAdminService_Login(t *testing.T) {
	active := storefront.Admin{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "plain$secret-pass", IsActive: true}

	t.Run("success records last login", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByEmail", ctx, "ada@example.com").Return(active, nil)
		f.repo.On("Update", ctx, anyAdmin).Return(echoAdmin, nil)

		result, err := f.service.Login(ctx, "ADA@example.com", "secret-pass")
		require.NoError(t, err)
		assert.Equal(t, "token-"+active.ID.String(), result.Token)
		assert.NotNil(t, result.Admin.LastLoginAt)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByEmail", ctx, "who@example.com").Return(storefront.Admin{}, storefront.ErrNotFound)

		_, err := f.service.Login(ctx, "who@example.com", "secret-pass")
		assert.ErrorIs(t, err, storefront.ErrUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByEmail", ctx, "ada@example.com").Return(active, nil)

		_, err := f.service.Login(ctx, "ada@example.com", "guess")
		assert.ErrorIs(t, err, storefront.ErrUnauthorized)
	})

	t.Run("deactivated", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		inactive := active
		inactive.IsActive = false
		f.repo.On("FindByEmail", ctx, "ada@example.com").Return(inactive, nil)

		_, err := f.service.Login(ctx, "ada@example.com", "secret-pass")
		assert.ErrorIs(t, err, storefront.ErrInactive)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByEmail", ctx, "ada@example.com").Return(storefront.Admin{}, errors.New("db down"))

		_, err := f.service.Login(ctx, "ada@example.com", "secret-pass")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, storefront.ErrUnauthorized)
	})
}

func TestAdminService_UploadPicture(t *testing.T) {
	old := storefront.AssetDescriptor{PublicID: "pictures/old-1-1", URL: "mem://old", Storage: storefront.BackendRemote}
	admin := storefront.Admin{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", IsActive: true, Picture: old}

	t.Run("replaces the picture and discards the old one once", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByID", ctx, admin.ID).Return(admin, nil)
		f.repo.On("Update", ctx, anyAdmin).Return(echoAdmin, nil)

		result, err := f.service.UploadPicture(ctx, admin.ID, []storefront.UploadFile{imageFile("picture", "new.png", "image/png", 10)})
		require.NoError(t, err)

		assert.Equal(t, result.PictureInfo, result.Admin.Picture)
		assert.NotEqual(t, old.PublicID, result.Admin.Picture.PublicID)
		assert.Equal(t, []storefront.AssetDescriptor{old}, f.remote.deleted())
	})

	t.Run("update failure discards the new picture and keeps the old", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByID", ctx, admin.ID).Return(admin, nil)
		f.repo.On("Update", ctx, anyAdmin).Return(storefront.Admin{}, errors.New("write failed"))

		_, err := f.service.UploadPicture(ctx, admin.ID, []storefront.UploadFile{imageFile("picture", "new.png", "image/png", 10)})
		assert.Error(t, err)

		deleted := f.remote.deleted()
		require.Len(t, deleted, 1)
		assert.NotEqual(t, old.PublicID, deleted[0].PublicID)
		assert.Equal(t, 0, f.remote.objectCount())
	})

	t.Run("requires a file", func(t *testing.T) {
		f := newAdminFixture(t)

		_, err := f.service.UploadPicture(context.Background(), admin.ID, nil)
		assert.ErrorIs(t, err, storefront.ErrInvalidInput)
	})

	t.Run("unknown admin", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()
		id := uuid.New()

		f.repo.On("FindByID", ctx, id).Return(storefront.Admin{}, storefront.ErrNotFound)

		_, err := f.service.UploadPicture(ctx, id, []storefront.UploadFile{imageFile("picture", "new.png", "image/png", 10)})
		assert.ErrorIs(t, err, storefront.ErrNotFound)
		assert.Equal(t, 0, f.remote.calls)
	})
}

func TestAdminService_UpdateProfile(t *testing.T) {
	admin := storefront.Admin{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", IsActive: true}

	t.Run("email taken by someone else", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByID", ctx, admin.ID).Return(admin, nil)
		f.repo.On("FindByEmail", ctx, "grace@example.com").Return(storefront.Admin{ID: uuid.New()}, nil)

		_, err := f.service.UpdateProfile(ctx, admin.ID, storefront.ProfileInput{Email: "grace@example.com"})
		assert.ErrorIs(t, err, storefront.ErrConflict)
	})

	t.Run("name only", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByID", ctx, admin.ID).Return(admin, nil)
		f.repo.On("Update", ctx, anyAdmin).Return(echoAdmin, nil)

		updated, err := f.service.UpdateProfile(ctx, admin.ID, storefront.ProfileInput{Name: "Ada King"})
		require.NoError(t, err)
		assert.Equal(t, "Ada King", updated.Name)
		assert.Equal(t, admin.Email, updated.Email)
	})
}

func TestAdminService_ChangePassword(t *testing.T) {
	admin := storefront.Admin{ID: uuid.New(), PasswordHash: "plain$old-password", IsActive: true}

	t.Run("success", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByID", ctx, admin.ID).Return(admin, nil)
		f.repo.On("Update", ctx, mock.MatchedBy(func(a storefront.Admin) bool {
			return a.PasswordHash == "plain$new-password"
		})).Return(echoAdmin, nil)

		err := f.service.ChangePassword(ctx, admin.ID, storefront.PasswordChange{CurrentPassword: "old-password", NewPassword: "new-password"})
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAdminFixture(t)
		ctx := context.Background()

		f.repo.On("FindByID", ctx, admin.ID).Return(admin, nil)

		err := f.service.ChangePassword(ctx, admin.ID, storefront.PasswordChange{CurrentPassword: "nope", NewPassword: "new-password"})
		assert.ErrorIs(t, err, storefront.ErrInvalidInput)
	})
}

func TestAdminService_SetActive(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	admin := storefront.Admin{ID: uuid.New(), IsActive: true}

	f.repo.On("FindByID", ctx, admin.ID).Return(admin, nil)
	f.repo.On("Update", ctx, anyAdmin).Return(echoAdmin, nil)

	updated, err := f.service.SetActive(ctx, admin.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}
