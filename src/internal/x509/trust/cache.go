// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"strings"
	"sync"
)

// VerdictCache maps leaf-certificate fingerprints to previously computed
// chain-status flags. Entries are never evicted; they persist for the
// process lifetime.
//
// Concurrent handshakes may race on the same fingerprint: the first write
// wins and later writers discard their (idempotent) result. VerdictCache is
// safe for concurrent use without external locking.
type VerdictCache struct {
	entries sync.Map // lowercase fingerprint -> Flags
}

// NewVerdictCache creates an empty verdict cache.
func NewVerdictCache() *VerdictCache { return &VerdictCache{} }

// Lookup returns the cached flags for fingerprint, if any.
// The fingerprint comparison is case-insensitive.
func (c *VerdictCache) Lookup(fingerprint string) (Flags, bool) {
	value, ok := c.entries.Load(strings.ToLower(fingerprint))
	if !ok {
		return FlagNoError, false
	}
	return value.(Flags), true
}

// Store records flags for fingerprint unless an entry already exists, and
// returns the winning entry. Callers must treat the returned value, not
// their own computation, as the cached verdict.
func (c *VerdictCache) Store(fingerprint string, flags Flags) Flags {
	winner, _ := c.entries.LoadOrStore(strings.ToLower(fingerprint), flags)
	return winner.(Flags)
}

// Len returns the number of cached verdicts. Intended for diagnostics; the
// count may be stale by the time it is read.
func (c *VerdictCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
