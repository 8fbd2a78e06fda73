package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequirePassenger(t *testing.T) {
	router := gin.New()
	router.GET("/me", RequirePassenger(), func(c *gin.Context) {
		c.String(http.StatusOK, PassengerID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(PassengerIDHeader, "p1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", w.Body.String())
}

func TestRequireActor(t *testing.T) {
	router := gin.New()
	router.POST("/scan", RequireActor(), func(c *gin.Context) {
		c.String(http.StatusOK, ActorID(c))
	})

	req := httptest.NewRequest(http.MethodPost, "/scan", nil)
	req.Header.Set(PassengerIDHeader, "p1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/scan", nil)
	req.Header.Set(ActorIDHeader, "gate-3")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "gate-3", w.Body.String())
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware())
	router.POST("/v1/tickets", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/v1/tickets", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), PassengerIDHeader)
}

func TestIdempotencyMiddleware_DisabledWithoutRedis(t *testing.T) {
	calls := 0
	router := gin.New()
	router.Use(IdempotencyMiddleware(nil))
	router.POST("/v1/wallet/topup", func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/wallet/topup", nil)
		req.Header.Set(idempotencyHeader, "same-key")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyCacheKey_ScopedByCaller(t *testing.T) {
	var keys []string
	router := gin.New()
	router.POST("/v1/tickets", func(c *gin.Context) {
		keys = append(keys, idempotencyCacheKey(c, "k"))
	})

	for _, passenger := range []string{"p1", "p2"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/tickets", nil)
		req.Header.Set(PassengerIDHeader, passenger)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	if assert.Len(t, keys, 2) {
		assert.NotEqual(t, keys[0], keys[1])
		assert.Equal(t, "idempotency:p1:POST:/v1/tickets:k", keys[0])
	}
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
