package tenancy

import (
	"context"
	"time"
)

// Row is a single record keyed by column name.
type Row map[string]any

// String returns the string value for the column, "" when absent.
func (r Row) String(col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// Bool returns the boolean value for the column.
func (r Row) Bool(col string) bool {
	v, _ := r[col].(bool)
	return v
}

// Int returns the integer value for the column, accepting the widths pgx
// produces for int2/int4/int8.
func (r Row) Int(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case int:
		return int64(v)
	}
	return 0
}

// Time returns the timestamp value for the column.
func (r Row) Time(col string) time.Time {
	if v, ok := r[col].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// Store is the generic data-access contract the organization filter wraps.
// Implementations execute the operation as given; scoping is the decorator's
// responsibility.
type Store interface {
	FindOne(ctx context.Context, op Op) (Row, error)
	FindMany(ctx context.Context, op Op) ([]Row, error)
	Count(ctx context.Context, op Op) (int64, error)
	Create(ctx context.Context, op Op) (Row, error)
	Update(ctx context.Context, op Op) (int64, error)
	Delete(ctx context.Context, op Op) (int64, error)
}
