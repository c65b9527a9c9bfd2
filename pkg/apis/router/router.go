package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pAdmin/pkg/apis/handlers"
	"github.com/sukryu/pAdmin/pkg/middleware"
	"github.com/sukryu/pAdmin/pkg/utils/jwt"
)

type Router struct {
	mountPath      string
	entityHandlers []*handlers.EntityHandler
	authHandler    *handlers.AuthHandler
	jwtManager     *jwt.JWTManager
	roles          []string
	health         HealthCheck
}

// HealthCheck reports backend details for /healthz. An error marks the
// service unavailable.
type HealthCheck func() (gin.H, error)

// NewRouter mounts every entity under mountPath. A nil jwtManager leaves the
// mutating routes unauthenticated; a nil authHandler mounts no login route.
func NewRouter(
	mountPath string,
	entityHandlers []*handlers.EntityHandler,
	authHandler *handlers.AuthHandler,
	jwtManager *jwt.JWTManager,
	roles []string,
) *Router {
	if mountPath == "" {
		mountPath = "/admin"
	}
	return &Router{
		mountPath:      path.Clean("/" + mountPath),
		entityHandlers: entityHandlers,
		authHandler:    authHandler,
		jwtManager:     jwtManager,
		roles:          roles,
	}
}

// WithHealthCheck makes /healthz report fn's details.
func (r *Router) WithHealthCheck(fn HealthCheck) *Router {
	r.health = fn
	return r
}

func (r *Router) Setup() *gin.Engine {
	router := gin.Default()

	// 에러 핸들링 미들웨어
	router.Use(middleware.ErrorMiddleware())

	var guard []gin.HandlerFunc
	if r.jwtManager != nil {
		guard = append(guard, middleware.JWTAuth(r.jwtManager), middleware.RequireRoles(r.roles...))
	}

	// Public routes
	if r.authHandler != nil {
		r.authHandler.Register(router.Group(path.Join(r.mountPath, "auth")))
	}

	names := make([]string, 0, len(r.entityHandlers))
	for _, h := range r.entityHandlers {
		group := router.Group(path.Join(r.mountPath, h.Name()))
		h.Register(group, guard...)
		names = append(names, h.Name())
	}

	router.GET(r.mountPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"entities": names})
	})
	router.GET("/healthz", func(c *gin.Context) {
		if r.health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		details, err := r.health()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": details})
	})

	return router
}
