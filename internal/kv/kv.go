// Package kv is the flat key-value persistence boundary: get, set and remove
// text values by key, no transactions.
package kv

import "context"

// Store is a flat key-value store of text values
type Store interface {
	// Get returns the value stored under key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys lists every stored key in sorted order
	Keys(ctx context.Context) ([]string, error)
}
