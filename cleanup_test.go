package storefront_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sagarc03/storefront"
	"github.com/stretchr/testify/assert"
)

func TestCleaner_DiscardDescriptors(t *testing.T) {
	t.Run("routes each descriptor to its backend", func(t *testing.T) {
		remote, local := newMemStore(storefront.BackendRemote), newMemStore(storefront.BackendLocal)
		c := storefront.NewCleaner(storefront.CleanerConfig{}, remote, local)

		c.DiscardDescriptors(context.Background(), []storefront.AssetDescriptor{
			{PublicID: "r1", Storage: storefront.BackendRemote},
			{PublicID: "l1", Storage: storefront.BackendLocal, LocalPath: "pictures/l1.jpg"},
			{PublicID: "r2", Storage: storefront.BackendRemote},
		})

		assert.ElementsMatch(t, []string{"r1", "r2"}, ids(remote.deleted()))
		assert.ElementsMatch(t, []string{"l1"}, ids(local.deleted()))
	})

	t.Run("failures do not stop the remaining deletes", func(t *testing.T) {
		remote := newMemStore(storefront.BackendRemote)
		remote.deleteErr = errors.New("boom")
		c := storefront.NewCleaner(storefront.CleanerConfig{Concurrency: 1}, remote)

		descriptors := []storefront.AssetDescriptor{
			{PublicID: "a", Storage: storefront.BackendRemote},
			{PublicID: "b", Storage: storefront.BackendRemote},
			{PublicID: "c", Storage: storefront.BackendRemote},
		}
		c.DiscardDescriptors(context.Background(), descriptors)

		assert.Len(t, remote.deleted(), 3)
	})

	t.Run("zero descriptors and unknown backends are skipped", func(t *testing.T) {
		local := newMemStore(storefront.BackendLocal)
		c := storefront.NewCleaner(storefront.CleanerConfig{}, nil, local)

		c.DiscardDescriptors(context.Background(), []storefront.AssetDescriptor{
			{},
			{PublicID: "r1", Storage: storefront.BackendRemote},
			{PublicID: "x", Storage: "tape"},
		})

		assert.Empty(t, local.deleted())
	})

	t.Run("keys that do not exist are discarded without raising", func(t *testing.T) {
		remote, local := newMemStore(storefront.BackendRemote), newMemStore(storefront.BackendLocal)
		c := storefront.NewCleaner(storefront.CleanerConfig{}, remote, local)

		assert.NotPanics(t, func() {
			c.DiscardBatch(context.Background(), storefront.UploadBatch{
				Main:       &storefront.AssetDescriptor{PublicID: "missing", Storage: storefront.BackendLocal},
				Additional: []storefront.AssetDescriptor{{PublicID: "gone", Storage: storefront.BackendRemote}},
			})
		})
		assert.Len(t, local.deleted(), 1)
		assert.Len(t, remote.deleted(), 1)
	})

	t.Run("cancelled request context still deletes", func(t *testing.T) {
		local := newMemStore(storefront.BackendLocal)
		c := storefront.NewCleaner(storefront.CleanerConfig{}, local)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c.DiscardDescriptors(ctx, []storefront.AssetDescriptor{{PublicID: "l", Storage: storefront.BackendLocal}})
		assert.Len(t, local.deleted(), 1)
	})
}

func ids(ds []storefront.AssetDescriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.PublicID)
	}
	return out
}
