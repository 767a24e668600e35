package dynamodb

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrInvalidKey = errors.New("dynamodb cache: empty key")

	// ErrOperationTimeout covers deadlines and throttling.
	ErrOperationTimeout = errors.New("dynamodb cache: timed out")
)

// API is the slice of the DynamoDB client the cache calls.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Attribute names. expires_at is also the table's TTL attribute.
const (
	attrKey     = "key"
	attrExpires = "expires_at"
)

type exportItem struct {
	Key       string `dynamodbav:"key"`
	Value     []byte `dynamodbav:"value"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

type Stats struct {
	Hits   int64
	Misses int64
}

// Cache keeps rendered exports in a DynamoDB table.
type Cache struct {
	api     API
	table   *string
	prefix  string
	ttl     time.Duration
	sliding bool
	timeout time.Duration
	now     func() time.Time

	hits, misses atomic.Int64
}

// NewCache wraps an existing table.
func NewCache(api API, cfg Config) *Cache {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultConfig().QueryTimeout
	}
	return &Cache{
		api:     api,
		table:   aws.String(cfg.TableName),
		prefix:  cfg.KeyPrefix + "export:",
		ttl:     cfg.TTL,
		sliding: cfg.Sliding,
		timeout: cfg.QueryTimeout,
		now:     time.Now,
	}
}

func (c *Cache) key(k string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{attrKey: &types.AttributeValueMemberS{Value: c.prefix + k}}
}

func (c *Cache) expiry() int64 {
	if c.ttl <= 0 {
		return 0
	}
	return c.now().Add(c.ttl).Unix()
}

// Get returns a rendered export. Items past expires_at are misses even
// before the table's TTL sweep deletes them.
func (c *Cache) Get(ctx context.Context, k string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{TableName: c.table, Key: c.key(k)})
	if err != nil {
		return nil, false, classify(err)
	}

	var item exportItem
	if out.Item != nil {
		if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
			return nil, false, err
		}
	}
	if out.Item == nil || (item.ExpiresAt > 0 && c.now().Unix() > item.ExpiresAt) {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)

	if c.sliding && item.ExpiresAt > 0 {
		if err := c.touch(ctx, k); err != nil {
			return nil, false, err
		}
	}
	return item.Value, true, nil
}

// touch pushes expires_at forward, only if the item still exists.
func (c *Cache) touch(ctx context.Context, k string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name(attrExpires), expression.Value(c.expiry()))).
		WithCondition(expression.AttributeExists(expression.Name(attrKey))).
		Build()
	if err != nil {
		return err
	}

	_, err = c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 c.table,
		Key:                       c.key(k),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var gone *types.ConditionalCheckFailedException
	if errors.As(err, &gone) {
		return nil
	}
	return classify(err)
}

func (c *Cache) Set(ctx context.Context, k string, value []byte) error {
	if k == "" {
		return ErrInvalidKey
	}
	av, err := attributevalue.MarshalMap(exportItem{Key: c.prefix + k, Value: value, ExpiresAt: c.expiry()})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{TableName: c.table, Item: av})
	return classify(err)
}

func (c *Cache) Delete(ctx context.Context, k string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: c.table, Key: c.key(k)})
	return classify(err)
}

func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func classify(err error) error {
	var throttled *types.ProvisionedThroughputExceededException
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &throttled):
		return errors.Join(ErrOperationTimeout, err)
	default:
		return err
	}
}
