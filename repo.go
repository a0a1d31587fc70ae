package storefront

import (
	"context"

	"github.com/google/uuid"
)

// AssetStore is one storage backend for uploaded images.
//
// All methods accept a context for cancellation and timeout control.
type AssetStore interface {
	// Backend names the destination this store writes to. Descriptors returned
	// by Store carry this value in their Storage field.
	Backend() Backend

	// Store writes one file and returns its descriptor.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - file: the file to store; implementations call file.Open and close the reader
	//   - nc: namespace and seed used to build a legible, collision-resistant key
	//
	// Returns:
	//   - AssetDescriptor: identifier, URL and backend of the stored file
	//   - error: any validation, network or I/O error
	Store(ctx context.Context, file UploadFile, nc NamingContext) (AssetDescriptor, error)

	// Delete removes a stored file. Deleting a file that no longer exists is
	// not an error.
	Delete(ctx context.Context, d AssetDescriptor) error
}

// AdminRepo persists admin accounts.
//
// Update replaces the whole record; concurrent updates resolve as last write wins.
type AdminRepo interface {
	// Create inserts a new admin. Returns ErrConflict if the email is taken.
	Create(ctx context.Context, a Admin) (Admin, error)

	// FindByID returns ErrNotFound if no admin has the id.
	FindByID(ctx context.Context, id uuid.UUID) (Admin, error)

	// FindByEmail matches the lower-cased email. Returns ErrNotFound when absent.
	FindByEmail(ctx context.Context, email string) (Admin, error)

	// Update overwrites every mutable field of the admin with a.ID and returns
	// the stored row. Returns ErrNotFound or ErrConflict.
	Update(ctx context.Context, a Admin) (Admin, error)

	// Delete returns ErrNotFound if no admin has the id.
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, q AdminQuery) (Page[Admin], error)
}

// ProductRepo persists products.
type ProductRepo interface {
	Create(ctx context.Context, p Product) (Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// List applies the filters of an already normalized query and returns
	// one page ordered by q.SortBy.
	List(ctx context.Context, q ProductQuery) (Page[Product], error)

	// ListImages returns every descriptor referenced by any product. Used to
	// find unreferenced files on disk.
	ListImages(ctx context.Context) ([]AssetDescriptor, error)
}

// Uploader stores a request's files. Pipeline is the implementation.
type Uploader interface {
	AcceptUpload(ctx context.Context, files []UploadFile, spec UploadSpec, nc NamingContext) (UploadBatch, error)
}

// Discarder deletes descriptors from the backend that holds them without ever
// failing the caller. Cleaner is the implementation.
type Discarder interface {
	DiscardBatch(ctx context.Context, batch UploadBatch)
	DiscardDescriptors(ctx context.Context, descriptors []AssetDescriptor)
}

// PasswordHasher hashes and verifies admin passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// TokenIssuer issues bearer tokens for authenticated admins.
type TokenIssuer interface {
	Issue(a Admin) (string, error)
}
