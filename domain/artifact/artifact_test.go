package artifact_test

import (
	"testing"

	"github.com/felixgeelhaar/chartforge/domain/artifact"
	"github.com/felixgeelhaar/chartforge/domain/export"
)

func TestNewRef(t *testing.T) {
	t.Parallel()

	t.Run("generates unique IDs", func(t *testing.T) {
		t.Parallel()

		a := artifact.NewRef(export.FormatPNG)
		b := artifact.NewRef(export.FormatPNG)
		if a.ID == "" || a.ID == b.ID {
			t.Errorf("NewRef() IDs = %q, %q, want distinct non-empty", a.ID, b.ID)
		}
	})

	t.Run("sets CreatedAt", func(t *testing.T) {
		t.Parallel()

		ref := artifact.NewRef(export.FormatSVG)
		if ref.CreatedAt.IsZero() {
			t.Error("NewRef() CreatedAt should not be zero")
		}
	})
}

func TestRef_Names(t *testing.T) {
	t.Parallel()

	ref := artifact.Ref{ID: "abc", Format: export.FormatPDF}
	if got := ref.Key(); got != "abc.pdf" {
		t.Errorf("Key() = %s, want abc.pdf", got)
	}
	if got := ref.FileName(); got != "abc.pdf" {
		t.Errorf("FileName() = %s, want abc.pdf", got)
	}
	named := ref.WithName("sales")
	if got := named.FileName(); got != "sales.pdf" {
		t.Errorf("FileName() = %s, want sales.pdf", got)
	}
	if got := named.ContentType(); got != "application/pdf" {
		t.Errorf("ContentType() = %s, want application/pdf", got)
	}
}

func TestRef_WithMetadataCopies(t *testing.T) {
	t.Parallel()

	base := artifact.Ref{ID: "abc", Format: export.FormatPNG}.WithMetadata("chart", "bar")
	derived := base.WithMetadata("chart", "pie")
	if base.Metadata["chart"] != "bar" {
		t.Errorf("base metadata mutated: %v", base.Metadata)
	}
	if derived.Metadata["chart"] != "pie" {
		t.Errorf("derived metadata = %v", derived.Metadata)
	}
}

func TestRef_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  artifact.Ref
		want bool
	}{
		{"valid", artifact.Ref{ID: "a", Format: export.FormatPNG}, true},
		{"no id", artifact.Ref{Format: export.FormatPNG}, false},
		{"bad format", artifact.Ref{ID: "a", Format: "gif"}, false},
	}
	for _, tt := range tests {
		if got := tt.ref.IsValid(); got != tt.want {
			t.Errorf("%s: IsValid() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestComplete(t *testing.T) {
	t.Parallel()

	ref := artifact.Complete(artifact.Ref{ID: "a", Format: export.FormatPNG}, []byte("abc"))
	if ref.Size != 3 {
		t.Errorf("Size = %d, want 3", ref.Size)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if ref.Checksum != want {
		t.Errorf("Checksum = %s, want %s", ref.Checksum, want)
	}
}
