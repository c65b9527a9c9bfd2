package middleware

import (
	"github.com/gin-gonic/gin"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/sukryu/pAdmin/pkg/admin"
	"github.com/sukryu/pAdmin/pkg/errors"
)

// RequireRoles lets a request through when its actor holds at least one of
// roles. It must run after JWTAuth. An empty role list admits every actor.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := sets.New(roles...)
	return func(c *gin.Context) {
		actor, ok := admin.ActorFrom(c.Request.Context())
		if !ok {
			abort(c, errors.ErrUnauthorized.WithReason("no authenticated actor"))
			return
		}
		if allowed.Len() > 0 && !allowed.HasAny(actor.Roles...) {
			abort(c, errors.ErrForbidden.WithReason("insufficient role for "+c.Request.Method+" "+c.FullPath()))
			return
		}
		c.Next()
	}
}
