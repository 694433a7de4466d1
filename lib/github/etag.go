// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

package github

import "sync"

// responseCache remembers the ETag and body of earlier GET responses
// so repeat reads can ride conditional requests. GitHub answers a
// matching If-None-Match with 304 Not Modified and does not charge
// rate limit quota for it, which matters here because the daemon
// re-reads the same status file URL between edits.
//
// Entries are never evicted; the working set is a handful of URLs.
type responseCache struct {
	mu    sync.RWMutex
	byURL map[string]cachedResponse
}

type cachedResponse struct {
	etag string
	body []byte
}

func newResponseCache() *responseCache {
	return &responseCache{byURL: make(map[string]cachedResponse)}
}

// lookup returns the cached ETag and body for url. Both are zero when
// the URL has not been seen.
func (cache *responseCache) lookup(url string) (string, []byte) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	cached := cache.byURL[url]
	return cached.etag, cached.body
}

// store records the response for url. Responses without an ETag are
// not cacheable and are dropped.
func (cache *responseCache) store(url, etag string, body []byte) {
	if etag == "" {
		return
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.byURL[url] = cachedResponse{etag: etag, body: body}
}
