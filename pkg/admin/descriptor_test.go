package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/mocks"
	"github.com/sukryu/pAdmin/pkg/store/schema"
)

func TestParseActions(t *testing.T) {
	actions, err := ParseActions([]string{"view", "delete"})
	require.NoError(t, err)
	assert.True(t, actions.Equal(sets.New(ActionView, ActionDelete)))

	_, err = ParseActions([]string{"view", "export"})
	assert.ErrorContains(t, err, "export")
}

func TestEntityDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EntityDescriptor)
		wantErr string
	}{
		{name: "valid", mutate: func(*EntityDescriptor) {}},
		{name: "no name", mutate: func(d *EntityDescriptor) { d.Name = "" }, wantErr: "name"},
		{name: "no update schema", mutate: func(d *EntityDescriptor) { d.UpdateSchema = nil }, wantErr: "schemas are required"},
		{name: "bad pk type", mutate: func(d *EntityDescriptor) { d.PKType = "decimal" }, wantErr: "primary key type"},
		{name: "bad action", mutate: func(d *EntityDescriptor) { d.AllowedActions = sets.New[Action]("export") }, wantErr: "unknown action"},
		{
			name: "duplicate form field",
			mutate: func(d *EntityDescriptor) {
				d.CreateSchema.Fields = append(d.CreateSchema.Fields, FieldSpec{Name: "name"})
			},
			wantErr: "duplicate field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := productsDescriptor()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewEntityView_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("derives key and defaults", func(t *testing.T) {
		ms := mocks.NewMockDynamicStore()
		ms.On("GetSchema", mock.Anything, "users").Return(usersTable(), nil)

		d := usersDescriptor()
		d.Transformer = nil
		d.AdminModel = true
		v, err := NewEntityView(ctx, d, ms)
		require.NoError(t, err)

		desc := v.Descriptor()
		assert.Equal(t, "id", desc.PrimaryKey)
		assert.Equal(t, PKInteger, desc.PKType)
		assert.True(t, desc.Allows(ActionCreate))
		assert.IsType(t, &SecretTransformer{}, desc.Transformer)
		assert.Equal(t, []string{"id", "username", "email", "role", "updated_at"}, v.Columns())
	})

	t.Run("uuid key is opaque", func(t *testing.T) {
		ms := mocks.NewMockDynamicStore()
		ms.On("GetSchema", mock.Anything, "tokens").Return(&schema.EntitySchema{
			Name: "tokens",
			Fields: []schema.FieldDef{
				{Name: "token", Type: schema.FieldTypeUUID, PrimaryKey: true},
			},
		}, nil)

		d := productsDescriptor()
		d.Name, d.Table = "tokens", "tokens"
		d.CreateSchema = &FormSchema{}
		d.UpdateSchema = &FormSchema{}
		d.AllowedActions = sets.New(ActionView)
		v, err := NewEntityView(ctx, d, ms)
		require.NoError(t, err)
		assert.Equal(t, PKOpaque, v.Descriptor().PKType)
		desc := v.Descriptor()
		assert.False(t, desc.Allows(ActionDelete))
	})

	t.Run("select schema must match table", func(t *testing.T) {
		ms := mocks.NewMockDynamicStore()
		ms.On("GetSchema", mock.Anything, "products").Return(productsTable(), nil)

		d := productsDescriptor()
		d.SelectSchema = &FormSchema{Fields: []FieldSpec{{Name: "colour"}}}
		_, err := NewEntityView(ctx, d, ms)
		assert.ErrorIs(t, err, errors.ErrInvalidSchema)
	})

	t.Run("unknown table", func(t *testing.T) {
		ms := mocks.NewMockDynamicStore()
		ms.On("GetSchema", mock.Anything, "products").Return(nil, errors.ErrUnknownEntity)

		_, err := NewEntityView(ctx, productsDescriptor(), ms)
		assert.ErrorIs(t, err, errors.ErrUnknownEntity)
	})
}
