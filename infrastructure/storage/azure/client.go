// Package azure provides an Azure Blob Storage client for the blob artifact
// store.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"

	blobstore "github.com/felixgeelhaar/chartforge/infrastructure/storage/blob"
)

// Config configures the Azure client. ConnectionString wins over
// AccountKey; with neither, DefaultAzureCredential is used.
type Config struct {
	AccountName      string
	AccountKey       string
	ConnectionString string
}

// Client implements blob.Client for Azure Blob Storage. Buckets map to
// containers.
type Client struct {
	client *azblob.Client
}

// NewClient creates an Azure Blob Storage client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccountName == "" && cfg.ConnectionString == "" {
		return nil, errors.New("account name or connection string is required")
	}

	var (
		client *azblob.Client
		err    error
	)
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)

	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client from connection string: %w", err)
		}
	case cfg.AccountKey != "":
		cred, credErr := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", credErr)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client with shared key: %w", err)
		}
	default:
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create default credential: %w", credErr)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create client with default credential: %w", err)
		}
	}

	return &Client{client: client}, nil
}

// Upload implements blob.Client.
func (c *Client) Upload(ctx context.Context, container, name, contentType string, content io.Reader) error {
	blobClient := c.client.ServiceClient().NewContainerClient(container).NewBlockBlobClient(name)

	opts := &blockblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := blobClient.UploadStream(ctx, content, opts); err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

// Download implements blob.Client.
func (c *Client) Download(ctx context.Context, container, name string) (io.ReadCloser, error) {
	resp, err := c.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", blobstore.ErrObjectNotFound, name)
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}

// Delete implements blob.Client.
func (c *Client) Delete(ctx context.Context, container, name string) error {
	if _, err := c.client.DeleteBlob(ctx, container, name, nil); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Exists implements blob.Client.
func (c *Client) Exists(ctx context.Context, container, name string) (bool, error) {
	blobClient := c.client.ServiceClient().NewContainerClient(container).NewBlobClient(name)
	if _, err := blobClient.GetProperties(ctx, nil); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get blob properties: %w", err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// Ensure Client implements blob.Client
var _ blobstore.Client = (*Client)(nil)
