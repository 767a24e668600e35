// Package artifact provides the domain model for published chart exports.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/chartforge/domain/export"
)

// Ref is a stable reference to a published export.
type Ref struct {
	// ID is the unique identifier of the export.
	ID string `json:"id"`

	// Name is an optional human-readable name, used as download file name.
	Name string `json:"name,omitempty"`

	// Format is the export encoding.
	Format export.Format `json:"format"`

	// Size is the size of the encoded image in bytes.
	Size int64 `json:"size"`

	// Checksum is the hex SHA-256 of the content.
	Checksum string `json:"checksum,omitempty"`

	// CreatedAt is when the export was published.
	CreatedAt time.Time `json:"created_at"`

	// Metadata holds chart details such as the chart type and dataset.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewRef creates a reference with a fresh ID.
func NewRef(format export.Format) Ref {
	return Ref{
		ID:        uuid.NewString(),
		Format:    format,
		CreatedAt: time.Now().UTC(),
		Metadata:  make(map[string]string),
	}
}

// ContentType returns the MIME type of the export.
func (r Ref) ContentType() string {
	return r.Format.MIMEType()
}

// Key returns the object key used by blob stores: the ID plus the format
// extension.
func (r Ref) Key() string {
	return r.ID + r.Format.Extension()
}

// FileName returns the download name: Name when set, else the key.
func (r Ref) FileName() string {
	if r.Name != "" {
		return r.Name + r.Format.Extension()
	}
	return r.Key()
}

// WithName sets the export name.
func (r Ref) WithName(name string) Ref {
	r.Name = name
	return r
}

// WithMetadata adds metadata to the reference.
func (r Ref) WithMetadata(key, value string) Ref {
	m := make(map[string]string, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		m[k] = v
	}
	m[key] = value
	r.Metadata = m
	return r
}

// IsValid reports whether the reference has an ID and a supported format.
func (r Ref) IsValid() bool {
	return r.ID != "" && r.Format.Valid()
}

// String returns a string representation of the reference.
func (r Ref) String() string {
	if r.Name != "" {
		return r.Name + " (" + r.Key() + ")"
	}
	return r.Key()
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
