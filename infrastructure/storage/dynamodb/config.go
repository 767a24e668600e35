// Package dynamodb keeps rendered exports in a DynamoDB table.
package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	domainconfig "github.com/felixgeelhaar/chartforge/domain/config"
)

// Config describes the table. Its hash key is the string attribute "key"
// and its TTL attribute is "expires_at".
type Config struct {
	Region   string
	Endpoint string // local DynamoDB, e.g. http://localhost:8000

	TableName    string
	QueryTimeout time.Duration
	KeyPrefix    string

	// TTL of a stored export; zero keeps it until deleted.
	TTL time.Duration
	// Sliding moves expires_at forward on every hit.
	Sliding bool
}

func DefaultConfig() Config {
	return Config{
		TableName:    "chartforge_exports",
		QueryTimeout: 10 * time.Second,
		KeyPrefix:    "chartforge:",
		TTL:          time.Hour,
	}
}

// FromCacheConfig maps the cache section onto table. An empty table keeps
// the default name.
func FromCacheConfig(c domainconfig.CacheConfig, table string) Config {
	cfg := DefaultConfig()
	if table != "" {
		cfg.TableName = table
	}
	if c.KeyPrefix != "" {
		cfg.KeyPrefix = c.KeyPrefix
	}
	if c.TTL > 0 {
		cfg.TTL = c.TTL.Duration()
	}
	cfg.Sliding = c.Sliding
	return cfg
}

// NewClient builds a client from the default AWS credential chain.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	var load []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		load = append(load, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, load...)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
