package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler interface {
	ListUsers(c *gin.Context)
}

type handler struct {
	service Service
	logger  *zap.SugaredLogger
}

func NewHandler(service Service, logger *zap.Logger) Handler {
	return &handler{
		service: service,
		logger:  logger.Sugar(),
	}
}

// @Summary List users
// @Description Users available as thread participants, ordered by name
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserListResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/users [get]
func (h *handler) ListUsers(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		h.logger.Errorw("ListUsers: query failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to list users"})
		return
	}
	if users == nil {
		users = []*User{}
	}
	c.JSON(http.StatusOK, UserListResponse{Success: true, Data: users})
}
