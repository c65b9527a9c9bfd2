package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sukryu/pAdmin/pkg/admin"
	"github.com/sukryu/pAdmin/pkg/middleware"
	"github.com/sukryu/pAdmin/pkg/store/dynamic/gormstore"
	"github.com/sukryu/pAdmin/pkg/store/schema"
	"github.com/sukryu/pAdmin/pkg/utils/jwt"
)

func setupAuth(t *testing.T) (*gin.Engine, *jwt.JWTManager) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store, err := gormstore.NewGormDynamicStore(db)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background(), &schema.EntitySchema{
		Name: "users",
		Fields: []schema.FieldDef{
			{Name: "id", Type: schema.FieldTypeInteger, PrimaryKey: true, AutoIncrement: true},
			{Name: "username", Type: schema.FieldTypeString, Required: true, Unique: true},
			{Name: "role", Type: schema.FieldTypeString},
			{Name: "hashed_password", Type: schema.FieldTypeString, Required: true},
		},
	}))
	t.Cleanup(func() { _ = store.Close() })

	tr := admin.DefaultAdminTransformer()
	tr.Hash = admin.BcryptHash(bcrypt.MinCost)
	tr.TimestampField = ""
	view, err := admin.NewEntityView(context.Background(), admin.EntityDescriptor{
		Name:  "users",
		Table: "users",
		CreateSchema: &admin.FormSchema{Fields: []admin.FieldSpec{
			{Name: "username", Type: schema.FieldTypeString, Required: true},
			{Name: "password", Type: schema.FieldTypeString, Required: true},
			{Name: "role", Type: schema.FieldTypeString, Default: "staff"},
		}},
		UpdateSchema: &admin.FormSchema{Fields: []admin.FieldSpec{
			{Name: "role", Type: schema.FieldTypeString},
		}},
		AdminModel:  true,
		Transformer: tr,
	}, store)
	require.NoError(t, err)

	out := view.Create(context.Background(), url.Values{"username": {"alice"}, "password": {"pw123456"}})
	require.True(t, out.OK(), out.Message())

	manager := jwt.NewJWTManager("test-secret", time.Hour)
	engine := gin.New()
	engine.Use(middleware.ErrorMiddleware())
	NewAuthHandler(view, manager).Register(engine.Group("/admin/auth"))
	return engine, manager
}

func TestLogin(t *testing.T) {
	engine, manager := setupAuth(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid credentials", body: `{"username":"alice","password":"pw123456"}`, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"username":"alice","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", body: `{"username":"bob","password":"pw123456"}`, wantStatus: http.StatusUnauthorized},
		{name: "missing password", body: `{"username":"alice"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed body", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/auth/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp loginResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, []string{"staff"}, resp.User.Roles)

			claims, err := manager.ValidateToken(resp.Token)
			require.NoError(t, err)
			assert.Equal(t, resp.User.ID, claims.UserID)
			assert.Equal(t, []string{"staff"}, claims.Roles)
		})
	}
}
