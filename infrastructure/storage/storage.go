// Package storage selects the artifact store backend from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/chartforge/domain/artifact"
	"github.com/felixgeelhaar/chartforge/domain/config"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/azure"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/blob"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/filesystem"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/gcs"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/memory"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/s3"
)

// Backend names.
const (
	BackendNone       = "none"
	BackendMemory     = "memory"
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
	BackendGCS        = "gcs"
	BackendAzure      = "azure"
)

// Closer releases backend resources.
type Closer func() error

func noClose() error { return nil }

// NewArtifactStore builds the configured artifact store. The "none" backend
// returns a nil store: publishing is disabled.
func NewArtifactStore(ctx context.Context, cfg config.StorageConfig) (artifact.Store, Closer, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendNone
	}

	store, closer, err := newStore(ctx, backend, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("storage backend %s: %w", backend, err)
	}

	logging.Info().
		Add(logging.Component("storage")).
		Add(logging.Str("backend", backend)).
		Msg("artifact store ready")

	return store, closer, nil
}

func newStore(ctx context.Context, backend string, cfg config.StorageConfig) (artifact.Store, Closer, error) {
	switch backend {
	case BackendNone:
		return nil, noClose, nil
	case BackendMemory:
		return memory.NewArtifactStore(), noClose, nil
	case BackendFilesystem:
		store, err := filesystem.NewArtifactStore(cfg.Dir)
		return store, noClose, err
	case BackendS3:
		client, err := s3.NewClient(ctx, s3.Config{
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, err
		}
		store, err := blob.NewArtifactStore(blob.Config{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix})
		return store, noClose, err
	case BackendGCS:
		client, err := gcs.NewClient(ctx, gcs.Config{CredentialsFile: cfg.CredentialsFile})
		if err != nil {
			return nil, nil, err
		}
		store, err := blob.NewArtifactStore(blob.Config{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix})
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	case BackendAzure:
		client, err := azure.NewClient(azure.Config{
			AccountName:      cfg.AccountName,
			AccountKey:       cfg.AccountKey,
			ConnectionString: cfg.ConnectionString,
		})
		if err != nil {
			return nil, nil, err
		}
		store, err := blob.NewArtifactStore(blob.Config{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix})
		return store, noClose, err
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}
