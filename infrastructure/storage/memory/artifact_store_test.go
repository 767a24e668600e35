package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/chartforge/domain/artifact"
	"github.com/felixgeelhaar/chartforge/domain/export"
)

func TestArtifactStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewArtifactStore()

	content := []byte("<svg/>")
	ref, err := store.Put(ctx, artifact.NewRef(export.FormatSVG).WithName("sales"), content)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	content[0] = 'x'

	got, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "<svg/>" {
		t.Errorf("Get() = %q, want <svg/>", got)
	}

	stored, err := store.Stat(ctx, ref)
	if err != nil || stored.Name != "sales" || stored.Size != 6 {
		t.Errorf("Stat() = %+v, %v", stored, err)
	}

	if _, err := store.Put(ctx, ref, []byte("again")); !errors.Is(err, artifact.ErrArtifactExists) {
		t.Errorf("Put(duplicate) error = %v, want ErrArtifactExists", err)
	}

	wrongFormat := artifact.Ref{ID: ref.ID, Format: export.FormatPNG}
	if exists, _ := store.Exists(ctx, wrongFormat); exists {
		t.Error("Exists() should not match a different format")
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
	if err := store.Delete(ctx, ref); !errors.Is(err, artifact.ErrArtifactNotFound) {
		t.Errorf("Delete() error = %v, want ErrArtifactNotFound", err)
	}
}

func TestArtifactStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewArtifactStore()

	tests := []struct {
		name    string
		ref     artifact.Ref
		content []byte
		want    error
	}{
		{"invalid ref", artifact.Ref{}, []byte("x"), artifact.ErrInvalidRef},
		{"empty content", artifact.NewRef(export.FormatPNG), nil, artifact.ErrEmptyContent},
	}
	for _, tt := range tests {
		if _, err := store.Put(ctx, tt.ref, tt.content); !errors.Is(err, tt.want) {
			t.Errorf("%s: Put() error = %v, want %v", tt.name, err, tt.want)
		}
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Get(canceled, artifact.NewRef(export.FormatPNG)); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}
