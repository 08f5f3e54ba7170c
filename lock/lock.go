// Package lock provides per-key mutual exclusion for ledger check-then-act sequences.
package lock

import (
	"context"
	"errors"
	"sort"
)

// ErrTimeout is returned when a key could not be acquired before the wait ran out.
var ErrTimeout = errors.New("lock: timed out waiting for key")

// Locker acquires all keys or none. The returned release func is safe to call once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

// normalize sorts and dedupes keys so callers locking overlapping sets never deadlock.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
