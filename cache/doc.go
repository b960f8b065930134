// Package cache defines the read-through caching surface used by the
// directory collection fetchers.
//
// CacheService is the backend contract (implemented by the sturdyc adapter
// in internal/cacheinfra), KeySerializer turns a method name plus arguments
// into a stable cache key, and the generic GetOrFetch helper recovers typed
// results from the any-valued backend.
//
// The fetchers cache whole collection responses (all hospitals, all
// departments) keyed by endpoint; local writes invalidate those keys so the
// next refresh reaches the server. See the directory package for the
// invalidation discipline.
package cache
