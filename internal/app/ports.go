package app

import "context"

// BlobStore is the key-value persistence boundary. The board is stored as one JSON blob.
type BlobStore interface {
	// Get returns the stored value and whether the key exists.
	Get(context.Context, string) ([]byte, bool, error)
	Put(context.Context, string, []byte) error
	Delete(context.Context, string) error
}
