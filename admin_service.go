package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     Role   `json:"-" validate:"omitempty,oneof=admin superadmin"`
}

type ProfileInput struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=100"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

// AuthResult is returned by Register and Login. PictureInfo is set only when
// the request uploaded a picture.
type AuthResult struct {
	Token       string           `json:"token"`
	Admin       Admin            `json:"admin"`
	PictureInfo *AssetDescriptor `json:"pictureInfo,omitempty"`
}

type PictureResult struct {
	Admin       Admin           `json:"admin"`
	PictureInfo AssetDescriptor `json:"pictureInfo"`
}

// AdminService manages admin accounts and their profile pictures.
type AdminService struct {
	repo      AdminRepo
	uploader  Uploader
	discarder Discarder
	hasher    PasswordHasher
	tokens    TokenIssuer
	pictures  UploadSpec
	now       func() time.Time
}

// AdminServiceConfig holds configuration options for AdminService.
type AdminServiceConfig struct {
	PictureMaxSize int64 // Per-file ceiling for pictures (default: 5MB)
}

func NewAdminService(repo AdminRepo, uploader Uploader, discarder Discarder, hasher PasswordHasher, tokens TokenIssuer, cfg AdminServiceConfig) (*AdminService, error) {
	if repo == nil || uploader == nil || discarder == nil || hasher == nil || tokens == nil {
		return nil, errors.New("new admin service: all dependencies are required")
	}

	spec := AdminPictureUpload()
	if cfg.PictureMaxSize > 0 {
		spec.MaxFileSize = cfg.PictureMaxSize
	}

	return &AdminService{
		repo:      repo,
		uploader:  uploader,
		discarder: discarder,
		hasher:    hasher,
		tokens:    tokens,
		pictures:  spec,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an admin account with an optional picture and returns a
// token for it. A stored picture is discarded if the account is not created.
func (s *AdminService) Register(ctx context.Context, in RegisterInput, files []UploadFile) (AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return AuthResult{}, fmt.Errorf("register admin: %w", err)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = RoleAdmin
	}
	if err := validateStruct("register admin", in); err != nil {
		return AuthResult{}, err
	}

	if err := s.ensureEmailFree(ctx, in.Email, uuid.Nil); err != nil {
		return AuthResult{}, fmt.Errorf("register admin: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("register admin: hash password: %w", err)
	}

	batch, err := s.uploader.AcceptUpload(ctx, files, s.pictures, NamingContext{Namespace: PicturesNamespace, Seed: in.Name})
	if err != nil {
		return AuthResult{}, fmt.Errorf("register admin: %w", err)
	}

	now := s.now()
	admin := Admin{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if batch.Main != nil {
		admin.Picture = *batch.Main
	}

	created, err := s.repo.Create(ctx, admin)
	if err != nil {
		s.discarder.DiscardBatch(ctx, batch)
		return AuthResult{}, fmt.Errorf("register admin: %w", err)
	}

	token, err := s.tokens.Issue(created)
	if err != nil {
		return AuthResult{}, fmt.Errorf("register admin: issue token: %w", err)
	}

	return AuthResult{Token: token, Admin: created, PictureInfo: batch.Main}, nil
}

// Login verifies credentials and records the login time. Unknown emails and
// wrong passwords both return ErrUnauthorized; deactivated accounts return
// ErrInactive.
func (s *AdminService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return AuthResult{}, fmt.Errorf("login: %w", err)
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, fmt.Errorf("login: %w: email and password are required", ErrInvalidInput)
	}

	admin, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return AuthResult{}, fmt.Errorf("login: %w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Verify(password, admin.PasswordHash)
	if err != nil {
		return AuthResult{}, fmt.Errorf("login: verify password: %w", err)
	}
	if !ok {
		return AuthResult{}, fmt.Errorf("login: %w: invalid credentials", ErrUnauthorized)
	}

	if !admin.IsActive {
		return AuthResult{}, fmt.Errorf("login: %w", ErrInactive)
	}

	now := s.now()
	admin.LastLoginAt = &now
	admin, err = s.repo.Update(ctx, admin)
	if err != nil {
		return AuthResult{}, fmt.Errorf("login: record last login: %w", err)
	}

	token, err := s.tokens.Issue(admin)
	if err != nil {
		return AuthResult{}, fmt.Errorf("login: issue token: %w", err)
	}

	return AuthResult{Token: token, Admin: admin}, nil
}

func (s *AdminService) Profile(ctx context.Context, id uuid.UUID) (Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Admin{}, fmt.Errorf("admin profile: %w", err)
	}
	return admin, nil
}

// UpdateProfile changes name and/or email. Empty fields are left unchanged.
func (s *AdminService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (Admin, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct("update profile", in); err != nil {
		return Admin{}, err
	}

	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Admin{}, fmt.Errorf("update profile: %w", err)
	}

	if in.Email != "" && in.Email != admin.Email {
		if err := s.ensureEmailFree(ctx, in.Email, admin.ID); err != nil {
			return Admin{}, fmt.Errorf("update profile: %w", err)
		}
		admin.Email = in.Email
	}
	if in.Name != "" {
		admin.Name = in.Name
	}
	admin.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, admin)
	if err != nil {
		return Admin{}, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

func (s *AdminService) ChangePassword(ctx context.Context, id uuid.UUID, in PasswordChange) error {
	if err := validateStruct("change password", in); err != nil {
		return err
	}

	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	ok, err := s.hasher.Verify(in.CurrentPassword, admin.PasswordHash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return fmt.Errorf("change password: %w: current password is incorrect", ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	admin.PasswordHash = hash
	admin.UpdatedAt = s.now()

	if _, err := s.repo.Update(ctx, admin); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// UploadPicture replaces the admin's picture. The new picture is discarded if
// the record cannot be updated; the previous one is discarded once the new
// record is stored.
func (s *AdminService) UploadPicture(ctx context.Context, id uuid.UUID, files []UploadFile) (PictureResult, error) {
	if len(files) == 0 {
		return PictureResult{}, fmt.Errorf("upload picture: %w: picture is required", ErrInvalidInput)
	}

	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return PictureResult{}, fmt.Errorf("upload picture: %w", err)
	}

	batch, err := s.uploader.AcceptUpload(ctx, files, s.pictures, NamingContext{Namespace: PicturesNamespace, Seed: admin.Name})
	if err != nil {
		return PictureResult{}, fmt.Errorf("upload picture: %w", err)
	}
	if batch.Main == nil {
		s.discarder.DiscardBatch(ctx, batch)
		return PictureResult{}, fmt.Errorf("upload picture: %w: picture is required", ErrInvalidInput)
	}

	previous := admin.Picture
	admin.Picture = *batch.Main
	admin.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, admin)
	if err != nil {
		s.discarder.DiscardBatch(ctx, batch)
		return PictureResult{}, fmt.Errorf("upload picture: %w", err)
	}

	if !previous.IsZero() {
		s.discarder.DiscardDescriptors(ctx, []AssetDescriptor{previous})
	}

	return PictureResult{Admin: updated, PictureInfo: *batch.Main}, nil
}

// SetActive activates or deactivates an account. Deactivated admins cannot
// log in and their existing tokens are rejected.
func (s *AdminService) SetActive(ctx context.Context, id uuid.UUID, active bool) (Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Admin{}, fmt.Errorf("set active: %w", err)
	}
	if admin.IsActive == active {
		return admin, nil
	}

	admin.IsActive = active
	admin.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, admin)
	if err != nil {
		return Admin{}, fmt.Errorf("set active: %w", err)
	}
	return updated, nil
}

func (s *AdminService) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == self {
		return nil
	}
	return fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
}
