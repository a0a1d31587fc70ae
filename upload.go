package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Pipeline validates and stores the files of one request. It tries the remote
// store first; if any file fails there the whole batch is stored locally.
type Pipeline struct {
	remote  AssetStore
	local   AssetStore
	cleaner Discarder
}

// NewPipeline creates a Pipeline. remote may be nil, in which case every
// batch goes straight to local. cleaner removes partial batches.
func NewPipeline(remote, local AssetStore, cleaner Discarder) (*Pipeline, error) {
	if local == nil {
		return nil, errors.New("new pipeline: local store is required")
	}
	if cleaner == nil {
		return nil, errors.New("new pipeline: cleaner is required")
	}
	return &Pipeline{remote: remote, local: local, cleaner: cleaner}, nil
}

// AcceptUpload validates files against spec and stores them.
//
// Validation failures return ErrInvalidInput before anything is stored. If
// the remote store rejects any file, the files it already accepted are
// discarded and the entire batch is stored through the local store. If that
// fails too, local partials are discarded and ErrBackend is returned wrapping
// the last error.
//
// Every returned descriptor carries the backend that stored it. An empty
// files slice yields an empty batch.
func (p *Pipeline) AcceptUpload(ctx context.Context, files []UploadFile, spec UploadSpec, nc NamingContext) (UploadBatch, error) {
	if err := ctx.Err(); err != nil {
		return UploadBatch{}, fmt.Errorf("accept upload: %w", err)
	}

	if err := validateFiles(files, spec); err != nil {
		return UploadBatch{}, fmt.Errorf("accept upload: %w", err)
	}

	if len(files) == 0 {
		return UploadBatch{}, nil
	}

	var lastErr error

	if p.remote != nil {
		descriptors, err := p.storeAll(ctx, p.remote, files, nc)
		if err == nil {
			return assemble(files, descriptors, spec), nil
		}
		lastErr = err
		uploadFallbacksTotal.Inc()
		slog.Warn("remote upload failed, falling back to local",
			"namespace", nc.Namespace, "files", len(files), "stored", len(descriptors), "err", err)
		p.cleaner.DiscardDescriptors(ctx, descriptors)
	}

	descriptors, err := p.storeAll(ctx, p.local, files, nc)
	if err == nil {
		return assemble(files, descriptors, spec), nil
	}
	lastErr = err
	p.cleaner.DiscardDescriptors(ctx, descriptors)

	return UploadBatch{}, fmt.Errorf("accept upload: %w: %w", ErrBackend, lastErr)
}

// storeAll stores files in order and stops at the first failure. It returns
// the descriptors stored so far alongside the error.
func (p *Pipeline) storeAll(ctx context.Context, store AssetStore, files []UploadFile, nc NamingContext) ([]AssetDescriptor, error) {
	backend := store.Backend()
	descriptors := make([]AssetDescriptor, 0, len(files))

	for _, f := range files {
		d, err := store.Store(ctx, f, nc)
		uploadsTotal.WithLabelValues(string(backend), resultLabel(err)).Inc()
		if err != nil {
			return descriptors, fmt.Errorf("store %s on %s: %w", f.Filename, backend, err)
		}
		d.Storage = backend
		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

func validateFiles(files []UploadFile, spec UploadSpec) error {
	mainCount, additionalCount := 0, 0

	for _, f := range files {
		switch {
		case f.Field == spec.MainField && spec.MainField != "":
			mainCount++
		case f.Field == spec.AdditionalField && spec.AdditionalField != "":
			additionalCount++
		default:
			return fmt.Errorf("%w: unexpected file field %q", ErrInvalidInput, f.Field)
		}

		if !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
			return fmt.Errorf("%w: %s: only image files are allowed", ErrInvalidInput, f.Filename)
		}
		if _, ok := NormalizeImageType(f.ContentType); !ok {
			return fmt.Errorf("%w: %s: image type %s is not allowed (jpeg, png, gif, webp)", ErrInvalidInput, f.Filename, f.ContentType)
		}
		if spec.MaxFileSize > 0 && f.Size > spec.MaxFileSize {
			return fmt.Errorf("%w: %s: file exceeds %d bytes", ErrInvalidInput, f.Filename, spec.MaxFileSize)
		}
		if f.Open == nil {
			return fmt.Errorf("%w: %s: no content", ErrInvalidInput, f.Filename)
		}
	}

	if mainCount > 1 {
		return fmt.Errorf("%w: at most one %s file", ErrInvalidInput, spec.MainField)
	}
	if additionalCount > spec.MaxAdditional {
		return fmt.Errorf("%w: at most %d %s files", ErrInvalidInput, spec.MaxAdditional, spec.AdditionalField)
	}

	return nil
}

func assemble(files []UploadFile, descriptors []AssetDescriptor, spec UploadSpec) UploadBatch {
	var batch UploadBatch
	for i, f := range files {
		d := descriptors[i]
		if f.Field == spec.MainField {
			batch.Main = &d
			continue
		}
		batch.Additional = append(batch.Additional, d)
	}
	return batch
}
