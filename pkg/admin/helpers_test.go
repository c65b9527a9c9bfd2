package admin

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sukryu/pAdmin/pkg/audit"
	"github.com/sukryu/pAdmin/pkg/store/dynamic/gormstore"
	"github.com/sukryu/pAdmin/pkg/store/schema"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fakeHash(s string) (string, error) {
	return "hashed:" + s, nil
}

func usersTable() *schema.EntitySchema {
	return &schema.EntitySchema{
		Name: "users",
		Fields: []schema.FieldDef{
			{Name: "id", Type: schema.FieldTypeInteger, PrimaryKey: true, AutoIncrement: true},
			{Name: "username", Type: schema.FieldTypeString, Required: true, Unique: true},
			{Name: "email", Type: schema.FieldTypeString},
			{Name: "role", Type: schema.FieldTypeString},
			{Name: "hashed_password", Type: schema.FieldTypeString},
			{Name: "updated_at", Type: schema.FieldTypeTimestamp},
		},
	}
}

func productsTable() *schema.EntitySchema {
	return &schema.EntitySchema{
		Name: "products",
		Fields: []schema.FieldDef{
			{Name: "id", Type: schema.FieldTypeInteger, PrimaryKey: true, AutoIncrement: true},
			{Name: "name", Type: schema.FieldTypeString, Required: true},
			{Name: "price", Type: schema.FieldTypeNumber},
			{Name: "active", Type: schema.FieldTypeBoolean},
		},
	}
}

func usersDescriptor() EntityDescriptor {
	return EntityDescriptor{
		Name:  "users",
		Table: "users",
		CreateSchema: &FormSchema{Name: "UserCreate", Fields: []FieldSpec{
			{Name: "username", Type: schema.FieldTypeString, Required: true, Rules: "min=3"},
			{Name: "email", Type: schema.FieldTypeString, Rules: "email"},
			{Name: "password", Type: schema.FieldTypeString, Required: true},
			{Name: "role", Type: schema.FieldTypeString, Default: "user"},
		}},
		UpdateSchema: &FormSchema{Name: "UserUpdate", Fields: []FieldSpec{
			{Name: "username", Type: schema.FieldTypeString, Rules: "min=3"},
			{Name: "email", Type: schema.FieldTypeString, Rules: "email"},
			{Name: "role", Type: schema.FieldTypeString},
			{Name: "password", Type: schema.FieldTypeString},
		}},
		UpdateInternalSchema: &FormSchema{Name: "UserInternal", Fields: []FieldSpec{
			{Name: "username", Type: schema.FieldTypeString},
			{Name: "email", Type: schema.FieldTypeString},
			{Name: "role", Type: schema.FieldTypeString},
			{Name: "hashed_password", Type: schema.FieldTypeString},
			{Name: "updated_at", Type: schema.FieldTypeTimestamp},
		}},
		SelectSchema: &FormSchema{Name: "UserRead", Fields: []FieldSpec{
			{Name: "username"}, {Name: "email"}, {Name: "role"}, {Name: "updated_at"},
		}},
		Transformer: &SecretTransformer{
			SourceField:    "password",
			TargetField:    "hashed_password",
			Hash:           fakeHash,
			RequiredFields: []string{"username"},
			TimestampField: "updated_at",
			Now:            func() time.Time { return fixedNow },
		},
	}
}

func productsDescriptor() EntityDescriptor {
	return EntityDescriptor{
		Name:  "products",
		Table: "products",
		CreateSchema: &FormSchema{Name: "ProductCreate", Fields: []FieldSpec{
			{Name: "name", Type: schema.FieldTypeString, Required: true},
			{Name: "price", Type: schema.FieldTypeNumber, Rules: "gte=0"},
			{Name: "active", Type: schema.FieldTypeBoolean, Default: false},
		}},
		UpdateSchema: &FormSchema{Name: "ProductUpdate", Fields: []FieldSpec{
			{Name: "name", Type: schema.FieldTypeString},
			{Name: "price", Type: schema.FieldTypeNumber, Rules: "gte=0"},
			{Name: "active", Type: schema.FieldTypeBoolean},
		}},
	}
}

func setupStore(t *testing.T) *gormstore.GormDynamicStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store, err := gormstore.NewGormDynamicStore(db)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background(), usersTable(), productsTable()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newView(t *testing.T, store *gormstore.GormDynamicStore, desc EntityDescriptor, opts ...Option) *EntityView {
	v, err := NewEntityView(context.Background(), desc, store, opts...)
	require.NoError(t, err)
	return v
}

func seedProducts(t *testing.T, v *EntityView, n int) []int64 {
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		out := v.Create(context.Background(), url.Values{
			"name":  {fmt.Sprintf("Product %02d", i)},
			"price": {fmt.Sprintf("%d", i*10)},
		})
		require.True(t, out.OK(), out.Message())
		ids = append(ids, out.Record["id"].(int64))
	}
	return ids
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (r *recordingAuditor) Record(_ context.Context, ev audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingAuditor) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = string(ev.Kind)
	}
	return out
}

type panickingAuditor struct{}

func (panickingAuditor) Record(context.Context, audit.Event) error {
	panic("sink exploded")
}

func form(pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Add(pairs[i], pairs[i+1])
	}
	return v
}
