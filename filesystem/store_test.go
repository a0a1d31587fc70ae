package filesystem_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/storefront"
	"github.com/sagarc03/storefront/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()
	tempDir := t.TempDir()
	root, err := os.OpenRoot(tempDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	return filesystem.NewStore(root, "http://localhost:5000/uploads/"), tempDir
}

func upload(content []byte, contentType, filename string) storefront.UploadFile {
	return storefront.UploadFile{
		Field:       "picture",
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

func TestStore_Store_Success(t *testing.T) {
	store, tempDir := newStore(t)
	content := []byte("jpeg bytes")

	d, err := store.Store(context.Background(), upload(content, "image/jpeg", "me.jpeg"),
		storefront.NamingContext{Namespace: storefront.PicturesNamespace, Seed: "Ada Lovelace"})
	require.NoError(t, err)

	assert.Equal(t, storefront.BackendLocal, d.Storage)
	assert.True(t, strings.HasPrefix(d.PublicID, "ada-lovelace-"))
	assert.True(t, strings.HasSuffix(d.PublicID, ".jpg"))
	assert.Equal(t, "pictures/"+d.PublicID, d.LocalPath)
	assert.Equal(t, "http://localhost:5000/uploads/pictures/"+d.PublicID, d.URL)

	written, err := os.ReadFile(filepath.Join(tempDir, "pictures", d.PublicID))
	require.NoError(t, err)
	assert.Equal(t, content, written)
}

func TestStore_Store_CreatesNestedDirectories(t *testing.T) {
	store, tempDir := newStore(t)

	d, err := store.Store(context.Background(), upload([]byte("png"), "image/png", "a.png"),
		storefront.NamingContext{Namespace: storefront.ProductNamespace("Winter Coats"), Seed: "Parka"})
	require.NoError(t, err)

	assert.Equal(t, "products/winter-coats/"+d.PublicID, d.LocalPath)
	_, err = os.Stat(filepath.Join(tempDir, "products", "winter-coats", d.PublicID))
	assert.NoError(t, err)
}

func TestStore_Store_NoTempFilesLeft(t *testing.T) {
	store, tempDir := newStore(t)

	failing := storefront.UploadFile{
		Filename:    "x.png",
		ContentType: "image/png",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(io.MultiReader(bytes.NewReader([]byte("part")), errReader{})), nil
		},
	}

	_, err := store.Store(context.Background(), failing, storefront.NamingContext{Namespace: "pictures", Seed: "x"})
	assert.Error(t, err)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_Store_RejectsEscapingNamespace(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Store(context.Background(), upload([]byte("x"), "image/png", "a.png"),
		storefront.NamingContext{Namespace: "../outside", Seed: "x"})
	assert.ErrorIs(t, err, storefront.ErrInvalidInput)
}

func TestStore_Store_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Store(ctx, upload([]byte("x"), "image/png", "a.png"), storefront.NamingContext{Namespace: "pictures"})
	assert.Equal(t, context.Canceled, err)
}

func TestStore_Delete(t *testing.T) {
	t.Run("by local path", func(t *testing.T) {
		store, tempDir := newStore(t)
		ctx := context.Background()

		d, err := store.Store(ctx, upload([]byte("x"), "image/png", "a.png"), storefront.NamingContext{Namespace: "pictures", Seed: "a"})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, d))
		_, err = os.Stat(filepath.Join(tempDir, d.LocalPath))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("by identifier in a category created at runtime", func(t *testing.T) {
		store, tempDir := newStore(t)
		ctx := context.Background()

		d, err := store.Store(ctx, upload([]byte("x"), "image/webp", "a.webp"),
			storefront.NamingContext{Namespace: storefront.ProductNamespace("swimwear"), Seed: "trunks"})
		require.NoError(t, err)

		err = store.Delete(ctx, storefront.AssetDescriptor{PublicID: strings.TrimSuffix(d.PublicID, ".webp"), Storage: storefront.BackendLocal})
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(tempDir, d.LocalPath))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		store, _ := newStore(t)
		ctx := context.Background()

		assert.NoError(t, store.Delete(ctx, storefront.AssetDescriptor{PublicID: "gone.jpg", LocalPath: "pictures/gone.jpg"}))
		assert.NoError(t, store.Delete(ctx, storefront.AssetDescriptor{PublicID: "gone"}))
	})

	t.Run("context canceled", func(t *testing.T) {
		store, _ := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Equal(t, context.Canceled, store.Delete(ctx, storefront.AssetDescriptor{PublicID: "x"}))
	})
}

func TestStore_List(t *testing.T) {
	store, tempDir := newStore(t)
	ctx := context.Background()

	a, err := store.Store(ctx, upload([]byte("aa"), "image/png", "a.png"), storefront.NamingContext{Namespace: "pictures", Seed: "a"})
	require.NoError(t, err)
	b, err := store.Store(ctx, upload([]byte("bbb"), "image/gif", "b.gif"), storefront.NamingContext{Namespace: "products/tops", Seed: "b"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".t00000000-0000-0000-0000-000000000000"), []byte("tmp"), 0o644))

	entries, err := store.List(ctx)
	require.NoError(t, err)

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{a.LocalPath, b.LocalPath}, paths)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }
