package filesystem

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/chartforge/domain/artifact"
	"github.com/felixgeelhaar/chartforge/domain/export"
)

func newStore(t *testing.T) (*ArtifactStore, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "exports", "charts")
	s, err := NewArtifactStore(root)
	if err != nil {
		t.Fatalf("NewArtifactStore() error = %v", err)
	}
	return s, root
}

func TestArtifactStore_PutLayout(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)
	content := []byte("<svg/>")
	ref, err := s.Put(context.Background(), artifact.NewRef(export.FormatSVG).WithName("sales").WithMetadata("chart", "bar"), content)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if ref.Size != int64(len(content)) || ref.Checksum != artifact.Checksum(content) {
		t.Errorf("ref = %+v, want size and checksum of content", ref)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != ref.ID {
		t.Errorf("root holds %v, want only %s", entries, ref.ID)
	}
	for _, name := range []string{ref.Key(), metadataFile} {
		if _, err := os.Stat(filepath.Join(root, ref.ID, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestArtifactStore_PutRejects(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)
	ctx := context.Background()

	taken := artifact.NewRef(export.FormatPNG)
	if _, err := s.Put(ctx, taken, []byte("a")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tests := []struct {
		name    string
		ref     artifact.Ref
		content []byte
		want    error
	}{
		{"empty id", artifact.Ref{Format: export.FormatPNG}, []byte("x"), artifact.ErrInvalidRef},
		{"bad format", artifact.Ref{ID: "a", Format: "gif"}, []byte("x"), artifact.ErrInvalidRef},
		{"empty content", artifact.NewRef(export.FormatPNG), nil, artifact.ErrEmptyContent},
		{"duplicate id", taken, []byte("b"), artifact.ErrArtifactExists},
	}
	for _, tt := range tests {
		if _, err := s.Put(ctx, tt.ref, tt.content); !errors.Is(err, tt.want) {
			t.Errorf("%s: Put() error = %v, want %v", tt.name, err, tt.want)
		}
	}

	entries, _ := os.ReadDir(root)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".put-") {
			t.Errorf("staging directory %s left behind", e.Name())
		}
	}
}

func TestArtifactStore_Get(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)
	ctx := context.Background()

	png := []byte{0x89, 'P', 'N', 'G', 0x00, 0xFF}
	ref, _ := s.Put(ctx, artifact.NewRef(export.FormatPNG), png)
	got, err := s.Get(ctx, artifact.Ref{ID: ref.ID, Format: ref.Format})
	if err != nil || !bytes.Equal(got, png) {
		t.Errorf("Get() = %v, %v, want %v", got, err, png)
	}

	if _, err := s.Get(ctx, artifact.NewRef(export.FormatPNG)); !errors.Is(err, artifact.ErrArtifactNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrArtifactNotFound", err)
	}

	eps, _ := s.Put(ctx, artifact.NewRef(export.FormatEPS), []byte("%!PS"))
	if err := os.WriteFile(filepath.Join(root, eps.ID, eps.Key()), []byte("%!PS tampered"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, eps); !errors.Is(err, artifact.ErrChecksumMismatch) {
		t.Errorf("Get(tampered) error = %v, want ErrChecksumMismatch", err)
	}
}

func TestArtifactStore_Stat(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	ctx := context.Background()

	ref, _ := s.Put(ctx, artifact.NewRef(export.FormatPDF).WithName("report").WithMetadata("dataset", "sales"), []byte("%PDF"))
	stored, err := s.Stat(ctx, artifact.Ref{ID: ref.ID, Format: ref.Format})
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stored.Name != "report" || stored.Metadata["dataset"] != "sales" || stored.Size != 4 {
		t.Errorf("Stat() = %+v, want report from sales, 4 bytes", stored)
	}
}

func TestArtifactStore_DeleteAndExists(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	ctx := context.Background()

	ref, _ := s.Put(ctx, artifact.NewRef(export.FormatJPEG), []byte("jpeg"))
	if ok, err := s.Exists(ctx, ref); err != nil || !ok {
		t.Fatalf("Exists() = %v, %v, want true", ok, err)
	}
	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, err := s.Exists(ctx, ref); err != nil || ok {
		t.Errorf("Exists() after delete = %v, %v, want false", ok, err)
	}
	if err := s.Delete(ctx, ref); !errors.Is(err, artifact.ErrArtifactNotFound) {
		t.Errorf("Delete() error = %v, want ErrArtifactNotFound", err)
	}
}

func TestArtifactStore_ConfinesIDs(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)
	ref := artifact.Ref{ID: "../../escape", Format: export.FormatSVG}
	if _, err := s.Put(context.Background(), ref, []byte("<svg/>")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape")); err != nil {
		t.Errorf("expected the export inside the root: %v", err)
	}
}
