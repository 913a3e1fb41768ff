// Package blobstore persists generated artifacts under deterministic paths
// and issues time-limited access URLs for them.
package blobstore

import "context"

// PutResult carries both the storage-native locator and the externally
// resolvable access URL for a stored blob.
type PutResult struct {
	URI string
	URL string
}

// Store is the contract the pipeline and reconciler depend on.
type Store interface {
	// Put writes data under path and returns its locator and access URL.
	Put(ctx context.Context, path string, data []byte, contentType string) (PutResult, error)

	// Exists reports whether an artifact is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// RefreshURL issues a fresh access URL for an existing artifact.
	RefreshURL(ctx context.Context, path string) (string, error)

	// URLValid reports whether url is well-formed, carries this store's
	// access marker, and has not expired.
	URLValid(url string) bool
}
