// Package blob provides an artifact store on top of object storage. Cloud
// backends (s3, gcs, azure) implement Client; the store handles layout,
// metadata and checksums.
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/chartforge/domain/artifact"
)

// ErrObjectNotFound is returned by clients when an object is not found.
var ErrObjectNotFound = errors.New("object not found")

// Client defines the object storage operations the store needs.
// This allows for mock implementations in testing.
type Client interface {
	// Upload writes content to bucket/object.
	Upload(ctx context.Context, bucket, object, contentType string, content io.Reader) error

	// Download reads bucket/object. Missing objects yield ErrObjectNotFound.
	Download(ctx context.Context, bucket, object string) (io.ReadCloser, error)

	// Delete removes an object.
	Delete(ctx context.Context, bucket, object string) error

	// Exists checks if an object exists.
	Exists(ctx context.Context, bucket, object string) (bool, error)
}

// Config holds configuration for the blob artifact store.
type Config struct {
	// Client is the object storage client to use.
	Client Client

	// Bucket is the bucket (or Azure container) name.
	Bucket string

	// Prefix is an optional prefix for all objects.
	Prefix string
}

// ArtifactStore implements artifact.Store on object storage. Each export
// is kept as two objects: <prefix>/<id>/<id>.<ext> and
// <prefix>/<id>/metadata.json.
type ArtifactStore struct {
	client Client
	bucket string
	prefix string
}

// NewArtifactStore creates a new blob artifact store.
func NewArtifactStore(cfg Config) (*ArtifactStore, error) {
	if cfg.Client == nil {
		return nil, errors.New("blob client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	return &ArtifactStore{
		client: cfg.Client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Put uploads content and its metadata.
func (s *ArtifactStore) Put(ctx context.Context, ref artifact.Ref, content []byte) (artifact.Ref, error) {
	if !ref.IsValid() {
		return artifact.Ref{}, artifact.ErrInvalidRef
	}
	if len(content) == 0 {
		return artifact.Ref{}, artifact.ErrEmptyContent
	}

	contentPath := s.contentPath(ref)
	exists, err := s.client.Exists(ctx, s.bucket, contentPath)
	if err != nil {
		return artifact.Ref{}, fmt.Errorf("failed to check artifact existence: %w", err)
	}
	if exists {
		return artifact.Ref{}, artifact.ErrArtifactExists
	}

	ref = artifact.Complete(ref, content)
	if err := s.client.Upload(ctx, s.bucket, contentPath, ref.ContentType(), bytes.NewReader(content)); err != nil {
		return artifact.Ref{}, fmt.Errorf("failed to upload content: %w", err)
	}

	metaData, err := json.Marshal(ref)
	if err != nil {
		_ = s.client.Delete(ctx, s.bucket, contentPath)
		return artifact.Ref{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := s.client.Upload(ctx, s.bucket, s.metadataPath(ref), "application/json", bytes.NewReader(metaData)); err != nil {
		_ = s.client.Delete(ctx, s.bucket, contentPath)
		return artifact.Ref{}, fmt.Errorf("failed to upload metadata: %w", err)
	}

	return ref, nil
}

// Get downloads the content of an export. When the stored metadata carries
// a checksum, the content is verified against it.
func (s *ArtifactStore) Get(ctx context.Context, ref artifact.Ref) ([]byte, error) {
	if !ref.IsValid() {
		return nil, artifact.ErrInvalidRef
	}

	reader, err := s.client.Download(ctx, s.bucket, s.contentPath(ref))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, artifact.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to download artifact: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	stored, err := s.Stat(ctx, ref)
	if err != nil && !errors.Is(err, artifact.ErrArtifactNotFound) {
		return nil, err
	}
	if stored.Checksum != "" && stored.Checksum != artifact.Checksum(content) {
		return nil, artifact.ErrChecksumMismatch
	}

	return content, nil
}

// Delete removes an export and its metadata.
func (s *ArtifactStore) Delete(ctx context.Context, ref artifact.Ref) error {
	if !ref.IsValid() {
		return artifact.ErrInvalidRef
	}

	contentPath := s.contentPath(ref)
	exists, err := s.client.Exists(ctx, s.bucket, contentPath)
	if err != nil {
		return fmt.Errorf("failed to check artifact existence: %w", err)
	}
	if !exists {
		return artifact.ErrArtifactNotFound
	}

	if err := s.client.Delete(ctx, s.bucket, contentPath); err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	// Metadata is best effort.
	_ = s.client.Delete(ctx, s.bucket, s.metadataPath(ref))

	return nil
}

// Exists checks if an export exists.
func (s *ArtifactStore) Exists(ctx context.Context, ref artifact.Ref) (bool, error) {
	if !ref.IsValid() {
		return false, artifact.ErrInvalidRef
	}
	return s.client.Exists(ctx, s.bucket, s.contentPath(ref))
}

// Stat downloads the stored reference without content.
func (s *ArtifactStore) Stat(ctx context.Context, ref artifact.Ref) (artifact.Ref, error) {
	if !ref.IsValid() {
		return artifact.Ref{}, artifact.ErrInvalidRef
	}

	reader, err := s.client.Download(ctx, s.bucket, s.metadataPath(ref))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return artifact.Ref{}, artifact.ErrArtifactNotFound
		}
		return artifact.Ref{}, fmt.Errorf("failed to download metadata: %w", err)
	}
	defer reader.Close()

	var stored artifact.Ref
	if err := json.NewDecoder(reader).Decode(&stored); err != nil {
		return artifact.Ref{}, fmt.Errorf("failed to decode metadata: %w", err)
	}

	return stored, nil
}

func (s *ArtifactStore) contentPath(ref artifact.Ref) string {
	return s.objectPath(ref.ID, ref.Key())
}

func (s *ArtifactStore) metadataPath(ref artifact.Ref) string {
	return s.objectPath(ref.ID, "metadata.json")
}

// objectPath constructs the full object path.
func (s *ArtifactStore) objectPath(id, name string) string {
	if s.prefix != "" {
		return s.prefix + "/" + id + "/" + name
	}
	return id + "/" + name
}

// Ensure ArtifactStore implements artifact.Store
var _ artifact.Store = (*ArtifactStore)(nil)
