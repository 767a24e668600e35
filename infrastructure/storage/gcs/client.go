// Package gcs provides a Google Cloud Storage client for the blob artifact
// store.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/felixgeelhaar/chartforge/infrastructure/storage/blob"
)

// Config configures the GCS client.
type Config struct {
	// CredentialsFile is an optional service account JSON file. Without it
	// Application Default Credentials are used.
	CredentialsFile string

	// CredentialsJSON is optional service account JSON content.
	CredentialsJSON []byte
}

// Client implements blob.Client for Google Cloud Storage.
type Client struct {
	client *gcs.Client
}

// NewClient creates a GCS client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	} else if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &Client{client: client}, nil
}

// Upload implements blob.Client.
func (c *Client) Upload(ctx context.Context, bucket, object, contentType string, content io.Reader) error {
	w := c.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Download implements blob.Client.
func (c *Client) Download(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

// Delete implements blob.Client.
func (c *Client) Delete(ctx context.Context, bucket, object string) error {
	if err := c.client.Bucket(bucket).Object(object).Delete(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

// Exists implements blob.Client.
func (c *Client) Exists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := c.client.Bucket(bucket).Object(object).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close closes the underlying client.
func (c *Client) Close() error {
	return c.client.Close()
}

func mapError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("%w: %v", blob.ErrObjectNotFound, err)
	}
	return err
}

// Ensure Client implements blob.Client
var _ blob.Client = (*Client)(nil)
