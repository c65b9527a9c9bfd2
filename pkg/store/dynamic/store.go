package dynamic

import (
	"context"

	"github.com/sukryu/pAdmin/pkg/store/schema"
)

// DynamicStore defines interface for dynamic table operations
type DynamicStore interface {
	// Basic CRUD operations
	Create(ctx context.Context, tableName string, data map[string]interface{}) (map[string]interface{}, error)
	Get(ctx context.Context, tableName string, id interface{}, columns []string) (map[string]interface{}, error)
	Update(ctx context.Context, tableName string, id interface{}, data map[string]interface{}) error
	Delete(ctx context.Context, tableName string, id interface{}) error

	// Query operations
	GetMany(ctx context.Context, tableName string, q ListQuery) ([]map[string]interface{}, int64, error)
	Count(ctx context.Context, tableName string, filters []Filter) (int64, error)

	// Schema operations
	GetSchema(ctx context.Context, tableName string) (*schema.EntitySchema, error)

	// Transaction support
	TransactionWithOptions(ctx context.Context, opts TransactionOptions, fn func(tx DynamicStore) error) error

	Close() error
}

// Operator is the comparison applied by a Filter.
type Operator string

const (
	OpEquals    Operator = "eq"
	OpIContains Operator = "icontains"
	OpIn        Operator = "in"
)

// Filter is a single typed predicate on one column. For OpIn, Value holds
// a []interface{}.
type Filter struct {
	Column   string      `json:"column"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

type Sort struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// ListQuery shapes a GetMany call. A zero Limit means no limit; empty
// Columns selects every column.
type ListQuery struct {
	Offset  int
	Limit   int
	Sorts   []Sort
	Filters []Filter
	Columns []string
}

type TransactionOptions struct {
	IsolationLevel IsolationLevel
	ReadOnly       bool
}

type IsolationLevel int

const (
	IsolationDefault IsolationLevel = iota
	ReadUncommitted
	ReadCommitted
	RepeatableRead
	Serializable
)

type DatabaseType string

const (
	SQLiteDB   DatabaseType = "sqlite"
	PostgresDB DatabaseType = "postgres"
)
