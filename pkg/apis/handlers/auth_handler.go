package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sukryu/pAdmin/pkg/admin"
	"github.com/sukryu/pAdmin/pkg/errors"
	"github.com/sukryu/pAdmin/pkg/utils/jwt"
)

// AuthHandler issues tokens for the users of an admin-model entity.
type AuthHandler struct {
	users      *admin.EntityView
	jwtManager *jwt.JWTManager
}

func NewAuthHandler(users *admin.EntityView, jwtManager *jwt.JWTManager) *AuthHandler {
	return &AuthHandler{
		users:      users,
		jwtManager: jwtManager,
	}
}

func (h *AuthHandler) Register(group *gin.RouterGroup) {
	group.POST("/login", h.Login)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  admin.Actor `json:"user"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.ErrInvalidInput.WithReason(err.Error()))
		return
	}

	actor, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	// JWT 토큰 생성
	token, err := h.jwtManager.GenerateToken(actor.ID, actor.Roles)
	if err != nil {
		c.Error(errors.ErrInternal.WithReason("failed to generate token"))
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token: token,
		User:  actor,
	})
}
