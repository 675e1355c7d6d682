package conversation

import (
	"errors"
	"net/http"
	"strconv"

	"threadbox/internal/access"
	"threadbox/internal/middleware"
	"threadbox/pkg/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgNotFoundOrDenied = "Thread not found or access denied"
	msgCannotDelete     = "Thread not found or you do not have permission to delete it"
)

type Handler interface {
	ListThreads(c *gin.Context)
	CreateThread(c *gin.Context)
	ViewThread(c *gin.Context)
	DeleteThread(c *gin.Context)
	PostMessage(c *gin.Context)
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

// @Summary List threads
// @Description Admins see every live thread, users only those they participate in. Most recent activity first.
// @Tags Thread
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} ThreadPageResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/threads [get]
func (h *handler) ListThreads(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.service.ListThreads(c.Request.Context(), p, page)
	if err != nil {
		h.fail(c, err, "Error listing threads")
		return
	}
	c.JSON(http.StatusOK, ThreadPageResponse{Success: true, Data: result})
}

// @Summary Create thread
// @Description Creates a thread with its participants and first message in one transaction
// @Tags Thread
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateThreadRequest true "Thread"
// @Success 201 {object} ThreadDetailResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/threads [post]
func (h *handler) CreateThread(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		return
	}

	detail, err := h.service.CreateThread(c.Request.Context(), p, req)
	if err != nil {
		h.fail(c, err, "Error creating thread")
		return
	}
	c.JSON(http.StatusCreated, ThreadDetailResponse{
		Success: true,
		Message: "Thread created successfully",
		Data:    detail,
	})
}

// @Summary View thread
// @Description Returns the thread with its messages and participants and marks it read for participants
// @Tags Thread
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {object} ThreadDetailResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/threads/{id} [get]
func (h *handler) ViewThread(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, apperr.ErrNotFoundOrDenied, "")
		return
	}

	detail, err := h.service.ViewThread(c.Request.Context(), p, id)
	if err != nil {
		h.fail(c, err, "Error loading thread")
		return
	}
	c.JSON(http.StatusOK, ThreadDetailResponse{Success: true, Data: detail})
}

// @Summary Delete thread
// @Description Soft-deletes a thread. Admins may delete any thread, users only their own.
// @Tags Thread
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {object} StatusResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/threads/{id} [delete]
func (h *handler) DeleteThread(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, apperr.ErrForbidden, "")
		return
	}

	if err := h.service.DeleteThread(c.Request.Context(), p, id); err != nil {
		h.fail(c, err, "Error deleting thread")
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Success: true, Message: "Thread deleted successfully"})
}

// @Summary Post message
// @Description Appends a message and bumps the thread's activity time
// @Tags Message
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Param request body PostMessageRequest true "Message"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/threads/{id}/messages [post]
func (h *handler) PostMessage(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		return
	}

	// an unparsable id matches no thread, after body validation has run
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	msg, err := h.service.PostMessage(c.Request.Context(), p, id, req.Body)
	if err != nil {
		h.fail(c, err, "Error sending message")
		return
	}
	c.JSON(http.StatusCreated, MessageResponse{
		Success: true,
		Message: "Message sent successfully",
		Data:    msg,
	})
}

func (h *handler) principal(c *gin.Context) (access.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		h.fail(c, apperr.ErrUnauthorized, "")
		return access.Principal{}, false
	}
	return p, true
}

// fail writes the error envelope. internal is the message used for unexpected failures.
func (h *handler) fail(c *gin.Context, err error, internal string) {
	status := apperr.HTTPStatus(err)
	resp := ErrorResponse{}

	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Message = "The given data was invalid."
		resp.Errors = verr.Fields
	case status == http.StatusUnauthorized:
		resp.Message = "Unauthenticated."
	case status == http.StatusNotFound:
		resp.Message = msgNotFoundOrDenied
	case status == http.StatusForbidden:
		resp.Message = msgCannotDelete
	default:
		h.logger.Errorw("Request failed", "path", c.FullPath(), "request_id", middleware.RequestID(c), "error", err)
		resp.Message = internal
	}
	c.JSON(status, resp)
}
