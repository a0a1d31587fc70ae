// Package filesystem provides the local disk backend for uploaded images.
// Writes are atomic (temp file and rename) and every file lives under a
// sandboxed uploads root: pictures/ for admins, products/<category>/ for
// product images.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/storefront"
)

// Store is the local AssetStore.
type Store struct {
	root    *os.Root
	baseURL string
	now     func() time.Time
}

// NewStore creates a Store over root. baseURL is the public prefix the root
// is served under, for example "http://localhost:5000/uploads".
// The root provides sandboxed file operations preventing path traversal.
func NewStore(root *os.Root, baseURL string) *Store {
	return &Store{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

func (s *Store) Backend() storefront.Backend {
	return storefront.BackendLocal
}

// FS exposes the uploads root for static serving.
func (s *Store) FS() fs.FS {
	return s.root.FS()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Store writes file to <namespace>/<seed>-<millis>-<rand><ext>, creating the
// namespace directory on first use. The descriptor's PublicID is the file
// name and LocalPath the path relative to the uploads root.
func (s *Store) Store(ctx context.Context, file storefront.UploadFile, nc storefront.NamingContext) (storefront.AssetDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return storefront.AssetDescriptor{}, err
	}

	dir, err := cleanNamespace(nc.Namespace)
	if err != nil {
		return storefront.AssetDescriptor{}, err
	}

	name := storefront.NewAssetKey(nc.Seed, s.now()) + storefront.ExtensionFor(file.ContentType, file.Filename)
	rel := path.Join(dir, name)

	content, err := file.Open()
	if err != nil {
		return storefront.AssetDescriptor{}, fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		if closeErr := content.Close(); closeErr != nil {
			slog.Warn("failed to close upload", "file", file.Filename, "err", closeErr)
		}
	}()

	if err := s.write(ctx, rel, content); err != nil {
		return storefront.AssetDescriptor{}, err
	}

	return storefront.AssetDescriptor{
		PublicID:  name,
		URL:       s.baseURL + "/" + rel,
		Storage:   storefront.BackendLocal,
		LocalPath: rel,
	}, nil
}

func (s *Store) write(ctx context.Context, rel string, content io.Reader) error {
	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: content}); err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := path.Dir(rel)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if err := s.root.Rename(tmpFile, rel); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	success = true
	return nil
}

// Delete removes the file behind d. Descriptors that carry a LocalPath are
// removed directly; older ones that only know their file name are searched
// for in pictures/ and every products/<category>/ directory. A file that is
// already gone is not an error.
func (s *Store) Delete(ctx context.Context, d storefront.AssetDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel := d.LocalPath
	if rel == "" {
		found, err := s.findByIdentifier(ctx, d.PublicID)
		if err != nil {
			return fmt.Errorf("delete %s: %w", d.PublicID, err)
		}
		if found == "" {
			slog.Info("local file not found, nothing to delete", "public_id", d.PublicID)
			return nil
		}
		rel = found
	}

	if err := s.root.Remove(rel); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("local file already deleted", "path", rel)
			return nil
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// findByIdentifier returns the relative path of the first file whose name
// contains id, or "" when none does.
func (s *Store) findByIdentifier(ctx context.Context, id string) (string, error) {
	id = path.Base(id)
	if id == "" || id == "." || id == "/" {
		return "", nil
	}

	dirs, err := s.searchDirs()
	if err != nil {
		return "", err
	}

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		entries, err := fs.ReadDir(s.root.FS(), dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", err
		}

		for _, e := range entries {
			if !e.IsDir() && strings.Contains(e.Name(), id) {
				return path.Join(dir, e.Name()), nil
			}
		}
	}

	return "", nil
}

// searchDirs lists pictures/ and every category directory that currently
// exists under products/.
func (s *Store) searchDirs() ([]string, error) {
	dirs := []string{storefront.PicturesNamespace}

	categories, err := fs.ReadDir(s.root.FS(), "products")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dirs, nil
		}
		return nil, err
	}

	for _, c := range categories {
		if c.IsDir() {
			dirs = append(dirs, path.Join("products", c.Name()))
		}
	}
	return dirs, nil
}

// FileEntry is a stored file found by List.
type FileEntry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// List recursively walks the uploads root and returns every stored file.
// Temp files of in-flight writes are skipped.
func (s *Store) List(ctx context.Context) ([]FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []FileEntry{}

	err := s.walkDir(ctx, ".", &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entries *[]FileEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		if isTmpFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, FileEntry{
			Path:    entryPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return nil
}

func cleanNamespace(ns string) (string, error) {
	if ns == "" {
		return ".", nil
	}
	clean := path.Clean(ns)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid namespace %q: %w", ns, storefront.ErrInvalidInput)
	}
	return clean, nil
}

const tmpPrefix = ".t"

func tmpFileName() string {
	return tmpPrefix + uuid.New().String()
}

func isTmpFile(name string) bool {
	return strings.HasPrefix(name, tmpPrefix) && len(name) == len(tmpPrefix)+36
}
