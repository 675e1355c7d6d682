package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"threadbox/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func serve(checker *utils.HealthChecker) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	RegisterRoutes(engine.Group("/api"), NewHandler(NewService(checker)))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	return w
}

func TestHealthEndpoint(t *testing.T) {
	w := serve(&utils.HealthChecker{Redis: stubPinger{}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = serve(&utils.HealthChecker{Redis: stubPinger{err: errors.New("down")}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}
