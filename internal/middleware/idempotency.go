package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 12 * time.Hour
)

// cachedResponse stores the first response seen for an idempotency key.
type cachedResponse struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// captureWriter tees the response body so it can be cached.
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key instead of re-executing the request. Field devices
// retry aggressively on flaky connections; without this, a retried
// advance or batch submit would hit the conflict path and confuse the
// driver. Keys are scoped per route so the same key on different
// endpoints never collides. Server errors are not cached so a retry can
// succeed.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idempotency:" + c.FullPath() + ":" + key

		cached, err := lookupResponse(ctx, redisClient, cacheKey)
		if err != nil && err != redis.Nil {
			// Redis is down: serve the request, lose the replay.
			c.Next()
			return
		}
		if cached != nil {
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		_ = storeResponse(ctx, redisClient, cacheKey, &cachedResponse{
			StatusCode:  status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
	}
}

func lookupResponse(ctx context.Context, client *redis.Client, key string) (*cachedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func storeResponse(ctx context.Context, client *redis.Client, key string, response *cachedResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
