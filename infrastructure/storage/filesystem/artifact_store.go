// Package filesystem stores published exports on local disk.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/chartforge/domain/artifact"
)

const metadataFile = "metadata.json"

// ArtifactStore keeps one directory per export:
//
//	<root>/<id>/<id>.<ext>
//	<root>/<id>/metadata.json
//
// Put stages both files in a hidden directory and renames it into place,
// so readers never see a half-written export.
type ArtifactStore struct {
	root string
}

func NewArtifactStore(root string) (*ArtifactStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("artifact root: %w", err)
	}
	return &ArtifactStore{root: root}, nil
}

// dir confines ids to a single path element below root.
func (s *ArtifactStore) dir(id string) string {
	return filepath.Join(s.root, filepath.Base(id))
}

func (s *ArtifactStore) Put(ctx context.Context, ref artifact.Ref, content []byte) (artifact.Ref, error) {
	switch {
	case !ref.IsValid():
		return artifact.Ref{}, artifact.ErrInvalidRef
	case len(content) == 0:
		return artifact.Ref{}, artifact.ErrEmptyContent
	}
	if err := ctx.Err(); err != nil {
		return artifact.Ref{}, err
	}

	final := s.dir(ref.ID)
	if _, err := os.Stat(final); err == nil {
		return artifact.Ref{}, artifact.ErrArtifactExists
	}

	ref = artifact.Complete(ref, content)
	meta, err := json.Marshal(ref)
	if err != nil {
		return artifact.Ref{}, fmt.Errorf("encode metadata: %w", err)
	}

	staging, err := os.MkdirTemp(s.root, ".put-")
	if err != nil {
		return artifact.Ref{}, fmt.Errorf("stage artifact: %w", err)
	}
	defer os.RemoveAll(staging) // #nosec G104 -- gone after a successful rename

	if err := os.WriteFile(filepath.Join(staging, filepath.Base(ref.Key())), content, 0o600); err != nil {
		return artifact.Ref{}, fmt.Errorf("write content: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, metadataFile), meta, 0o600); err != nil {
		return artifact.Ref{}, fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Chmod(staging, 0o750); err != nil {
		return artifact.Ref{}, fmt.Errorf("stage artifact: %w", err)
	}

	// Renaming onto an existing non-empty directory fails, which settles
	// a race between two Puts of the same id.
	if err := os.Rename(staging, final); err != nil {
		if _, statErr := os.Stat(final); statErr == nil {
			return artifact.Ref{}, artifact.ErrArtifactExists
		}
		return artifact.Ref{}, fmt.Errorf("commit artifact: %w", err)
	}
	return ref, nil
}

// Get returns the content after checking it against the stored checksum.
func (s *ArtifactStore) Get(ctx context.Context, ref artifact.Ref) ([]byte, error) {
	stored, err := s.Stat(ctx, ref)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filepath.Join(s.dir(ref.ID), filepath.Base(stored.Key()))) // #nosec G304 -- confined by dir
	if err != nil {
		return nil, notFound(err, "read artifact")
	}
	if stored.Checksum != "" && stored.Checksum != artifact.Checksum(content) {
		return nil, artifact.ErrChecksumMismatch
	}
	return content, nil
}

// Stat returns the ref recorded at publish time.
func (s *ArtifactStore) Stat(_ context.Context, ref artifact.Ref) (artifact.Ref, error) {
	if !ref.IsValid() {
		return artifact.Ref{}, artifact.ErrInvalidRef
	}

	data, err := os.ReadFile(filepath.Join(s.dir(ref.ID), metadataFile)) // #nosec G304 -- confined by dir
	if err != nil {
		return artifact.Ref{}, notFound(err, "read metadata")
	}
	var stored artifact.Ref
	if err := json.Unmarshal(data, &stored); err != nil {
		return artifact.Ref{}, fmt.Errorf("decode metadata: %w", err)
	}
	return stored, nil
}

func (s *ArtifactStore) Exists(ctx context.Context, ref artifact.Ref) (bool, error) {
	_, err := s.Stat(ctx, ref)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, artifact.ErrArtifactNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *ArtifactStore) Delete(_ context.Context, ref artifact.Ref) error {
	if !ref.IsValid() {
		return artifact.ErrInvalidRef
	}
	dir := s.dir(ref.ID)
	if _, err := os.Stat(dir); err != nil {
		return notFound(err, "delete artifact")
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

func notFound(err error, op string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return artifact.ErrArtifactNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ artifact.Store = (*ArtifactStore)(nil)
