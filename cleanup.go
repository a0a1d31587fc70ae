package storefront

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Cleaner deletes descriptors from whichever backend holds them. Failures are
// logged and never returned.
type Cleaner struct {
	stores      map[Backend]AssetStore
	timeout     time.Duration
	concurrency int
}

// CleanerConfig holds configuration options for Cleaner.
type CleanerConfig struct {
	Timeout     time.Duration // Timeout for a whole discard call (default: 30s)
	Concurrency int           // Parallel deletes per call (default: 4)
}

// NewCleaner routes deletes to stores by their Backend. Nil stores are skipped
// so a disabled remote can be passed as is.
func NewCleaner(cfg CleanerConfig, stores ...AssetStore) *Cleaner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	byBackend := make(map[Backend]AssetStore, len(stores))
	for _, s := range stores {
		if s != nil {
			byBackend[s.Backend()] = s
		}
	}

	return &Cleaner{stores: byBackend, timeout: timeout, concurrency: concurrency}
}

// DiscardBatch deletes every file of a batch whose request failed after upload.
func (c *Cleaner) DiscardBatch(ctx context.Context, batch UploadBatch) {
	c.DiscardDescriptors(ctx, batch.Descriptors())
}

// DiscardDescriptors deletes superseded or orphaned descriptors. All deletes
// are attempted concurrently; zero descriptors are skipped. The deletes run
// on a context detached from ctx's cancellation so a finished request still
// cleans up.
func (c *Cleaner) DiscardDescriptors(ctx context.Context, descriptors []AssetDescriptor) {
	if len(descriptors) == 0 {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, d := range descriptors {
		if d.IsZero() {
			continue
		}

		store, ok := c.stores[d.Storage]
		if !ok {
			slog.Warn("discard: no store for backend", "backend", d.Storage, "public_id", d.PublicID)
			discardsTotal.WithLabelValues(string(d.Storage), "skipped").Inc()
			continue
		}

		g.Go(func() error {
			err := store.Delete(cleanupCtx, d)
			discardsTotal.WithLabelValues(string(d.Storage), resultLabel(err)).Inc()
			if err != nil {
				slog.Error("discard failed", "backend", d.Storage, "public_id", d.PublicID, "err", err)
				return nil
			}
			slog.Debug("discarded asset", "backend", d.Storage, "public_id", d.PublicID)
			return nil
		})
	}

	_ = g.Wait()
}
