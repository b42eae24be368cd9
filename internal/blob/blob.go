package blob

import "context"

// Store is the narrow blob-storage port the evidence workflow uses.
// Evidence rows reference blobs by the opaque ref this interface
// returns; nothing else in the core knows the storage backend.
type Store interface {
	// Put uploads data under the given key and returns the blob ref.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Delete removes a previously uploaded blob.
	Delete(ctx context.Context, ref string) error
}
