// Package lock serialises check-then-commit sections per key. Keys are
// "showtime:<id>" for seat and booking changes and "cinema:<id>" for
// overlap checks.
package lock

import (
	"context"
	"sort"
)

// Locker acquires an exclusive lock on key. The returned func releases it
// and must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

func ShowtimeKey(id string) string { return "showtime:" + id }
func CinemaKey(id string) string   { return "cinema:" + id }

// LockAll acquires every distinct key in sorted order so two callers
// locking overlapping key sets cannot deadlock. On failure nothing is held.
func LockAll(ctx context.Context, l Locker, keys ...string) (func(), error) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)

	held := make([]func(), 0, len(uniq))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, k := range uniq {
		unlock, err := l.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, unlock)
	}
	return release, nil
}
