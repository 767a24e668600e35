package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/felixgeelhaar/chartforge/domain/config"
)

// ErrMissingQuery indicates a database source without a query.
var ErrMissingQuery = errors.New("query is required")

// limited appends a LIMIT clause when the source caps its rows.
func limited(query string, limit int) string {
	if limit <= 0 {
		return query
	}
	return fmt.Sprintf("SELECT * FROM (%s) AS src LIMIT %d", strings.TrimRight(strings.TrimSpace(query), ";"), limit)
}

// SQLiteReader runs a query against a SQLite database. The DSN falls
// back to the path.
type SQLiteReader struct{}

// Read implements Reader.
func (SQLiteReader) Read(ctx context.Context, src config.SourceConfig, path string) (*Table, error) {
	if src.Query == "" {
		return nil, ErrMissingQuery
	}
	dsn := src.DSN
	if dsn == "" {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, limited(src.Query, src.Limit))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return scanSQL(rows)
}

func scanSQL(rows *sql.Rows) (*Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	names, err := header(cols)
	if err != nil {
		return nil, err
	}
	t := &Table{Header: names}
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, rows.Err()
}

// pgQuerier is the subset of pgxpool.Pool the reader uses.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresReader runs a query against PostgreSQL.
type PostgresReader struct {
	connect func(ctx context.Context, dsn string) (pgQuerier, func(), error)
}

// NewPostgresReader returns a reader that opens a pool per load.
func NewPostgresReader() *PostgresReader {
	return &PostgresReader{connect: func(ctx context.Context, dsn string) (pgQuerier, func(), error) {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}}
}

// Read implements Reader.
func (r *PostgresReader) Read(ctx context.Context, src config.SourceConfig, _ string) (*Table, error) {
	if src.Query == "" {
		return nil, ErrMissingQuery
	}
	q, closeFn, err := r.connect(ctx, src.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer closeFn()

	rows, err := q.Query(ctx, limited(src.Query, src.Limit))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	names, err := header(cols)
	if err != nil {
		return nil, err
	}
	t := &Table{Header: names}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(t.Rows)+1, err)
		}
		for i, v := range vals {
			vals[i] = pgValue(v)
		}
		t.Rows = append(t.Rows, vals)
	}
	return t, rows.Err()
}

// pgValue converts NUMERIC values to float64.
func pgValue(v any) any {
	n, ok := v.(pgtype.Numeric)
	if !ok {
		return v
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return f.Float64
}

// mongoFinder is the subset of mongo.Collection the reader uses.
type mongoFinder interface {
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// MongoReader reads every document of a collection. Fields become columns
// in order of first appearance; nested documents are kept as text.
type MongoReader struct {
	connect      func(ctx context.Context, src config.SourceConfig) (mongoFinder, func(context.Context) error, error)
	queryTimeout time.Duration
}

// NewMongoReader returns a reader that connects per load.
func NewMongoReader() *MongoReader {
	return &MongoReader{
		queryTimeout: 30 * time.Second,
		connect: func(ctx context.Context, src config.SourceConfig) (mongoFinder, func(context.Context) error, error) {
			client, err := mongo.Connect(ctx, options.Client().ApplyURI(src.DSN))
			if err != nil {
				return nil, nil, err
			}
			return client.Database(src.Database).Collection(src.Collection), client.Disconnect, nil
		},
	}
}

// Read implements Reader.
func (r *MongoReader) Read(ctx context.Context, src config.SourceConfig, _ string) (*Table, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	coll, disconnect, err := r.connect(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = disconnect(context.Background()) }()

	find := options.Find()
	if src.Limit > 0 {
		find.SetLimit(int64(src.Limit))
	}
	cur, err := coll.Find(ctx, bson.D{}, find)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)

	index := make(map[string]int)
	var cols []string
	var docs []bson.D
	for cur.Next(ctx) {
		var doc bson.D
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode document %d: %w", len(docs)+1, err)
		}
		for _, e := range doc {
			if _, ok := index[e.Key]; !ok {
				index[e.Key] = len(cols)
				cols = append(cols, e.Key)
			}
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	names, err := header(cols)
	if err != nil {
		return nil, err
	}

	t := &Table{Header: names, Rows: make([][]any, len(docs))}
	for i, doc := range docs {
		row := make([]any, len(cols))
		for _, e := range doc {
			row[index[e.Key]] = bsonValue(e.Value)
		}
		t.Rows[i] = row
	}
	return t, nil
}

// bsonValue converts driver types to plain Go values.
func bsonValue(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.ObjectID:
		return x.Hex()
	case primitive.Decimal128:
		return x.String()
	case bson.D, bson.A, bson.M:
		return fmt.Sprint(x)
	default:
		return x
	}
}
