package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pAdmin/internal/config"
	"github.com/sukryu/pAdmin/internal/definitions"
	"github.com/sukryu/pAdmin/pkg/admin"
	"github.com/sukryu/pAdmin/pkg/apis/handlers"
	"github.com/sukryu/pAdmin/pkg/apis/router"
	"github.com/sukryu/pAdmin/pkg/audit"
	"github.com/sukryu/pAdmin/pkg/render"
	"github.com/sukryu/pAdmin/pkg/store/database"
	"github.com/sukryu/pAdmin/pkg/store/dynamic/gormstore"
	"github.com/sukryu/pAdmin/pkg/utils/jwt"
)

// App holds the wired server and everything that must be closed with it.
type App struct {
	Engine  *gin.Engine
	Views   []*admin.EntityView
	closers []func() error
}

// New builds the application from cfg: database, tables, audit sinks, views
// and routes.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	defs, err := definitions.LoadFile(cfg.Admin.DefinitionsFile)
	if err != nil {
		return nil, err
	}

	// 데이터베이스 초기화
	manager, err := database.NewManager(database.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		LogLevel:     cfg.Database.LogLevel,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, manager.Close)
	log.Printf("[DB] connected with %s driver", manager.Driver())

	store, err := gormstore.NewGormDynamicStore(manager.GetDB())
	if err != nil {
		a.Close()
		return nil, err
	}
	for _, def := range defs {
		if err := store.Migrate(ctx, def.Table); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to migrate %s: %w", def.Table.Name, err)
		}
	}

	auditor, err := a.auditor(cfg.Audit)
	if err != nil {
		a.Close()
		return nil, err
	}

	renderer, err := newRenderer(cfg.Admin)
	if err != nil {
		a.Close()
		return nil, err
	}

	entityHandlers := make([]*handlers.EntityHandler, 0, len(defs))
	for _, def := range defs {
		opts := []admin.Option{admin.WithMaxPageSize(cfg.Admin.MaxPageSize)}
		if auditor != nil {
			opts = append(opts, admin.WithAuditor(auditor))
		}
		view, err := admin.NewEntityView(ctx, def.Descriptor, store, opts...)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("entity %s: %w", def.Descriptor.Name, err)
		}
		a.Views = append(a.Views, view)
		entityHandlers = append(entityHandlers, handlers.NewEntityHandler(view, renderer))
	}

	var jwtManager *jwt.JWTManager
	var authHandler *handlers.AuthHandler
	if cfg.Auth.Enabled {
		jwtManager = jwt.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration)
		for _, view := range a.Views {
			if view.Descriptor().AdminModel {
				authHandler = handlers.NewAuthHandler(view, jwtManager)
				break
			}
		}
	}

	a.Engine = router.NewRouter(cfg.Server.MountPath, entityHandlers, authHandler, jwtManager, cfg.Auth.Roles).
		WithHealthCheck(databaseHealth(manager)).
		Setup()
	log.Printf("Mounted %d entities under %s", len(entityHandlers), cfg.Server.MountPath)
	return a, nil
}

func databaseHealth(m *database.Manager) router.HealthCheck {
	return func() (gin.H, error) {
		stats := m.GetStats()
		if msg, ok := stats["error"].(string); ok {
			return nil, fmt.Errorf("database: %s", msg)
		}
		return gin.H{"driver": m.Driver(), "connections": stats}, nil
	}
}

func (a *App) auditor(cfg config.AuditConfig) (admin.Auditor, error) {
	var sinks audit.Multi
	if cfg.Log {
		sinks = append(sinks, audit.NewLogAuditor(log.New(os.Stdout, "", log.LstdFlags)))
	}
	if len(cfg.Brokers) > 0 {
		k, err := audit.NewKafkaAuditor(audit.KafkaConfig{
			Brokers:      cfg.Brokers,
			Topic:        cfg.Topic,
			WriteTimeout: cfg.WriteTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, k.Close)
		sinks = append(sinks, k)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}

func newRenderer(cfg config.AdminConfig) (render.Renderer, error) {
	if cfg.Renderer == "html" {
		return render.LoadHTMLRenderer(cfg.TemplatesGlob)
	}
	return render.NewJSONRenderer(), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
