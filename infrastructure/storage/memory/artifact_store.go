package memory

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/chartforge/domain/artifact"
)

type storedArtifact struct {
	ref     artifact.Ref
	content []byte
}

// ArtifactStore is an in-memory implementation of artifact.Store.
type ArtifactStore struct {
	mu        sync.RWMutex
	artifacts map[string]storedArtifact
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{artifacts: make(map[string]storedArtifact)}
}

// Put stores a copy of content.
func (s *ArtifactStore) Put(ctx context.Context, ref artifact.Ref, content []byte) (artifact.Ref, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Ref{}, err
	}
	if !ref.IsValid() {
		return artifact.Ref{}, artifact.ErrInvalidRef
	}
	if len(content) == 0 {
		return artifact.Ref{}, artifact.ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artifacts[ref.ID]; exists {
		return artifact.Ref{}, artifact.ErrArtifactExists
	}

	ref = artifact.Complete(ref, content)
	data := make([]byte, len(content))
	copy(data, content)
	s.artifacts[ref.ID] = storedArtifact{ref: ref, content: data}
	return ref, nil
}

// Get returns a copy of the stored content.
func (s *ArtifactStore) Get(ctx context.Context, ref artifact.Ref) ([]byte, error) {
	a, err := s.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(a.content))
	copy(out, a.content)
	return out, nil
}

// Delete removes an export.
func (s *ArtifactStore) Delete(ctx context.Context, ref artifact.Ref) error {
	if _, err := s.lookup(ctx, ref); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.artifacts, ref.ID)
	return nil
}

// Exists reports whether an export is stored.
func (s *ArtifactStore) Exists(ctx context.Context, ref artifact.Ref) (bool, error) {
	_, err := s.lookup(ctx, ref)
	switch err {
	case nil:
		return true, nil
	case artifact.ErrArtifactNotFound:
		return false, nil
	default:
		return false, err
	}
}

// Stat returns the stored reference.
func (s *ArtifactStore) Stat(ctx context.Context, ref artifact.Ref) (artifact.Ref, error) {
	a, err := s.lookup(ctx, ref)
	if err != nil {
		return artifact.Ref{}, err
	}
	return a.ref, nil
}

// Len returns the number of stored exports.
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}

func (s *ArtifactStore) lookup(ctx context.Context, ref artifact.Ref) (storedArtifact, error) {
	if err := ctx.Err(); err != nil {
		return storedArtifact{}, err
	}
	if !ref.IsValid() {
		return storedArtifact{}, artifact.ErrInvalidRef
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[ref.ID]
	if !ok || a.ref.Format != ref.Format {
		return storedArtifact{}, artifact.ErrArtifactNotFound
	}
	return a, nil
}

// Ensure ArtifactStore implements artifact.Store
var _ artifact.Store = (*ArtifactStore)(nil)
