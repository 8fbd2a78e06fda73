package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	idempotencyTTL        = 24 * time.Hour
	idempotencyPendingTTL = 30 * time.Second
)

// storedResponse is the replayable part of a completed request.
type storedResponse struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// bodyRecorder tees the handler output so it can be stored.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response of a POST or PATCH
// repeated with the same Idempotency-Key, so a retried purchase or top-up
// charges the wallet once. Keys are scoped to the calling passenger or actor
// and route. A duplicate arriving while the first is still running gets 409.
// A nil client disables the middleware.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if redisClient == nil || key == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyCacheKey(c, key)

		stored, err := loadResponse(ctx, redisClient, cacheKey)
		switch {
		case err == nil:
			c.Data(stored.StatusCode, stored.ContentType, stored.Body)
			c.Abort()
			return
		case !errors.Is(err, redis.Nil):
			// Redis unavailable; serve the request without replay.
			c.Next()
			return
		}

		pendingKey := cacheKey + ":pending"
		reserved, err := redisClient.SetNX(ctx, pendingKey, "1", idempotencyPendingTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !reserved {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "a request with this idempotency key is already in progress",
			})
			return
		}
		defer redisClient.Del(context.WithoutCancel(ctx), pendingKey)

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		// Server-side failures stay retryable.
		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		_ = saveResponse(context.WithoutCancel(ctx), redisClient, cacheKey, &storedResponse{
			StatusCode:  status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
	}
}

func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPatch
}

// idempotencyCacheKey namespaces the client key by caller and route.
func idempotencyCacheKey(c *gin.Context, key string) string {
	caller := c.GetHeader(PassengerIDHeader)
	if caller == "" {
		caller = c.GetHeader(ActorIDHeader)
	}
	return "idempotency:" + caller + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
}

func loadResponse(ctx context.Context, client *redis.Client, key string) (*storedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func saveResponse(ctx context.Context, client *redis.Client, key string, resp *storedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
