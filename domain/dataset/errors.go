package dataset

import "errors"

// Domain errors for dataset operations.
var (
	// ErrColumnNotFound indicates a referenced column does not exist.
	ErrColumnNotFound = errors.New("column not found")

	// ErrDuplicateColumn indicates two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrEmptyColumnName indicates a column without a name.
	ErrEmptyColumnName = errors.New("empty column name")

	// ErrLengthMismatch indicates columns or masks of different lengths.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrKindMismatch indicates a value whose kind differs from its column.
	ErrKindMismatch = errors.New("value kind does not match column kind")

	// ErrNotNumeric indicates a numeric operation on a non-numeric column.
	ErrNotNumeric = errors.New("column is not numeric")

	// ErrDuplicateEntry indicates a pivot found the same index/column pair twice.
	ErrDuplicateEntry = errors.New("index contains duplicate entries, cannot reshape")

	// ErrSchemaMismatch indicates datasets that cannot be concatenated.
	ErrSchemaMismatch = errors.New("schema mismatch")
)
