package storefront_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/storefront"
	"github.com/stretchr/testify/mock"
)

var errUnreachable = errors.New("backend unreachable")

// memStore is an in-memory AssetStore. failOn makes the n-th Store call
// (1-based) fail; failAll makes every call fail.
type memStore struct {
	mu        sync.Mutex
	backend   storefront.Backend
	failOn    int
	failAll   bool
	deleteErr error
	mislabel  bool

	calls   int
	objects map[string][]byte
	deletes []storefront.AssetDescriptor
}

func newMemStore(backend storefront.Backend) *memStore {
	return &memStore{backend: backend, objects: map[string][]byte{}}
}

func (m *memStore) Backend() storefront.Backend { return m.backend }

func (m *memStore) Store(ctx context.Context, f storefront.UploadFile, nc storefront.NamingContext) (storefront.AssetDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failAll || m.calls == m.failOn {
		return storefront.AssetDescriptor{}, errUnreachable
	}

	rc, err := f.Open()
	if err != nil {
		return storefront.AssetDescriptor{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return storefront.AssetDescriptor{}, err
	}

	key := nc.Namespace + "/" + storefront.NewAssetKey(nc.Seed, time.Now())
	m.objects[key] = data

	storage := m.backend
	if m.mislabel {
		storage = "bogus"
	}
	return storefront.AssetDescriptor{PublicID: key, URL: "mem://" + key, Storage: storage}, nil
}

func (m *memStore) Delete(ctx context.Context, d storefront.AssetDescriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deletes = append(m.deletes, d)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, d.PublicID)
	return nil
}

func (m *memStore) objectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *memStore) deleted() []storefront.AssetDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storefront.AssetDescriptor(nil), m.deletes...)
}

func imageFile(field, name, contentType string, size int) storefront.UploadFile {
	data := bytes.Repeat([]byte{0xff}, size)
	return storefront.UploadFile{
		Field:       field,
		Filename:    name,
		ContentType: contentType,
		Size:        int64(size),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func newPipeline(remote, local *memStore) (*storefront.Pipeline, *storefront.Cleaner) {
	var stores []storefront.AssetStore
	if remote != nil {
		stores = append(stores, remote)
	}
	stores = append(stores, local)
	cleaner := storefront.NewCleaner(storefront.CleanerConfig{Timeout: time.Second}, stores...)

	var r storefront.AssetStore
	if remote != nil {
		r = remote
	}
	p, err := storefront.NewPipeline(r, local, cleaner)
	if err != nil {
		panic(err)
	}
	return p, cleaner
}

type SpyAdminRepo struct {
	mock.Mock
}

// Return values may be a func(storefront.Admin) storefront.Admin, which is
// applied to the argument.
func (s *SpyAdminRepo) Create(ctx context.Context, a storefront.Admin) (storefront.Admin, error) {
	args := s.Called(ctx, a)
	return adminResult(args.Get(0), a), args.Error(1)
}

func (s *SpyAdminRepo) FindByID(ctx context.Context, id uuid.UUID) (storefront.Admin, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(storefront.Admin), args.Error(1)
}

func (s *SpyAdminRepo) FindByEmail(ctx context.Context, email string) (storefront.Admin, error) {
	args := s.Called(ctx, email)
	return args.Get(0).(storefront.Admin), args.Error(1)
}

func (s *SpyAdminRepo) Update(ctx context.Context, a storefront.Admin) (storefront.Admin, error) {
	args := s.Called(ctx, a)
	return adminResult(args.Get(0), a), args.Error(1)
}

func (s *SpyAdminRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

func (s *SpyAdminRepo) List(ctx context.Context, q storefront.AdminQuery) (storefront.Page[storefront.Admin], error) {
	args := s.Called(ctx, q)
	return args.Get(0).(storefront.Page[storefront.Admin]), args.Error(1)
}

func adminResult(v any, in storefront.Admin) storefront.Admin {
	if fn, ok := v.(func(storefront.Admin) storefront.Admin); ok {
		return fn(in)
	}
	return v.(storefront.Admin)
}

func echoAdmin(a storefront.Admin) storefront.Admin { return a }

type SpyProductRepo struct {
	mock.Mock
}

func (s *SpyProductRepo) Create(ctx context.Context, p storefront.Product) (storefront.Product, error) {
	args := s.Called(ctx, p)
	return productResult(args.Get(0), p), args.Error(1)
}

func (s *SpyProductRepo) FindByID(ctx context.Context, id uuid.UUID) (storefront.Product, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(storefront.Product), args.Error(1)
}

func (s *SpyProductRepo) Update(ctx context.Context, p storefront.Product) (storefront.Product, error) {
	args := s.Called(ctx, p)
	return productResult(args.Get(0), p), args.Error(1)
}

func (s *SpyProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

func (s *SpyProductRepo) List(ctx context.Context, q storefront.ProductQuery) (storefront.Page[storefront.Product], error) {
	args := s.Called(ctx, q)
	return args.Get(0).(storefront.Page[storefront.Product]), args.Error(1)
}

func (s *SpyProductRepo) ListImages(ctx context.Context) ([]storefront.AssetDescriptor, error) {
	args := s.Called(ctx)
	return args.Get(0).([]storefront.AssetDescriptor), args.Error(1)
}

func productResult(v any, in storefront.Product) storefront.Product {
	if fn, ok := v.(func(storefront.Product) storefront.Product); ok {
		return fn(in)
	}
	return v.(storefront.Product)
}

func echoProduct(p storefront.Product) storefront.Product { return p }

type SpyDiscarder struct {
	mock.Mock
}

func (s *SpyDiscarder) DiscardBatch(ctx context.Context, batch storefront.UploadBatch) {
	s.Called(ctx, batch)
}

func (s *SpyDiscarder) DiscardDescriptors(ctx context.Context, descriptors []storefront.AssetDescriptor) {
	s.Called(ctx, descriptors)
}

// plainHasher prefixes passwords instead of hashing them.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain$" + password, nil }

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return strings.TrimPrefix(encoded, "plain$") == password, nil
}

type staticTokens struct{}

func (staticTokens) Issue(a storefront.Admin) (string, error) { return "token-" + a.ID.String(), nil }
