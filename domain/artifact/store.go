package artifact

import (
	"context"
	"errors"
)

// Store persists published exports. Implementations are in infrastructure.
type Store interface {
	// Put saves an encoded image under ref.ID and returns the completed
	// reference (size and checksum filled in).
	Put(ctx context.Context, ref Ref, content []byte) (Ref, error)

	// Get returns the content of a published export.
	Get(ctx context.Context, ref Ref) ([]byte, error)

	// Delete removes a published export.
	Delete(ctx context.Context, ref Ref) error

	// Exists reports whether a published export exists.
	Exists(ctx context.Context, ref Ref) (bool, error)

	// Stat returns the stored reference without content.
	Stat(ctx context.Context, ref Ref) (Ref, error)
}

// Complete fills the size and checksum of ref from content.
func Complete(ref Ref, content []byte) Ref {
	ref.Size = int64(len(content))
	ref.Checksum = Checksum(content)
	return ref
}

// Domain errors for artifact storage.
var (
	// ErrArtifactNotFound indicates the export was not found.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrArtifactExists indicates an export with the same ID exists.
	ErrArtifactExists = errors.New("artifact already exists")

	// ErrInvalidRef indicates the reference is invalid.
	ErrInvalidRef = errors.New("invalid artifact reference")

	// ErrEmptyContent indicates an attempt to publish zero bytes.
	ErrEmptyContent = errors.New("artifact content is empty")

	// ErrChecksumMismatch indicates the content checksum doesn't match.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
