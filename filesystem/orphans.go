package filesystem

import (
	"path"
	"strings"
	"time"

	"github.com/sagarc03/storefront"
)

// Orphans returns the entries no local descriptor in referenced points at.
// Descriptors without a LocalPath match any file whose name contains their
// PublicID. Entries modified after cutoff are kept so uploads that are not
// persisted yet survive.
func Orphans(entries []FileEntry, referenced []storefront.AssetDescriptor, cutoff time.Time) []FileEntry {
	paths := make(map[string]struct{}, len(referenced))
	var ids []string
	for _, d := range referenced {
		if d.Storage != storefront.BackendLocal {
			continue
		}
		if d.LocalPath != "" {
			paths[path.Clean(d.LocalPath)] = struct{}{}
			continue
		}
		if id := path.Base(d.PublicID); id != "" && id != "." && id != "/" {
			ids = append(ids, id)
		}
	}

	var orphans []FileEntry
	for _, e := range entries {
		if e.ModTime.After(cutoff) {
			continue
		}
		if _, ok := paths[path.Clean(e.Path)]; ok {
			continue
		}
		if containsAny(path.Base(e.Path), ids) {
			continue
		}
		orphans = append(orphans, e)
	}
	return orphans
}

func containsAny(name string, ids []string) bool {
	for _, id := range ids {
		if strings.Contains(name, id) {
			return true
		}
	}
	return false
}
