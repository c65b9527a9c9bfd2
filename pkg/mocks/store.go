package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sukryu/pAdmin/pkg/store/dynamic"
	"github.com/sukryu/pAdmin/pkg/store/schema"
)

// MockDynamicStore는 DynamicStore 인터페이스를 구현하는 mock 객체입니다.
type MockDynamicStore struct {
	mock.Mock
}

var _ dynamic.DynamicStore = (*MockDynamicStore)(nil)

func NewMockDynamicStore() *MockDynamicStore {
	return &MockDynamicStore{}
}

func (m *MockDynamicStore) Create(ctx context.Context, tableName string, data map[string]interface{}) (map[string]interface{}, error) {
	args := m.Called(ctx, tableName, data)
	if record, ok := args.Get(0).(map[string]interface{}); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDynamicStore) Get(ctx context.Context, tableName string, id interface{}, columns []string) (map[string]interface{}, error) {
	args := m.Called(ctx, tableName, id, columns)
	if record, ok := args.Get(0).(map[string]interface{}); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDynamicStore) Update(ctx context.Context, tableName string, id interface{}, data map[string]interface{}) error {
	args := m.Called(ctx, tableName, id, data)
	return args.Error(0)
}

func (m *MockDynamicStore) Delete(ctx context.Context, tableName string, id interface{}) error {
	args := m.Called(ctx, tableName, id)
	return args.Error(0)
}

func (m *MockDynamicStore) GetMany(ctx context.Context, tableName string, q dynamic.ListQuery) ([]map[string]interface{}, int64, error) {
	args := m.Called(ctx, tableName, q)
	if records, ok := args.Get(0).([]map[string]interface{}); ok {
		return records, args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *MockDynamicStore) Count(ctx context.Context, tableName string, filters []dynamic.Filter) (int64, error) {
	args := m.Called(ctx, tableName, filters)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDynamicStore) GetSchema(ctx context.Context, tableName string) (*schema.EntitySchema, error) {
	args := m.Called(ctx, tableName)
	if s, ok := args.Get(0).(*schema.EntitySchema); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// TransactionWithOptions runs fn against the mock itself unless an error is
// configured for the call, in which case fn is never invoked.
func (m *MockDynamicStore) TransactionWithOptions(ctx context.Context, opts dynamic.TransactionOptions, fn func(tx dynamic.DynamicStore) error) error {
	args := m.Called(ctx, opts)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockDynamicStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
