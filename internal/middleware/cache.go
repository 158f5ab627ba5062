package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/scamshield/scamshield/internal/config"
)

// cachedResponse is the envelope stored in Redis for a cached GET
// response. Responses are cached per route+query+variant so free-tier and
// full alert feeds never cross-contaminate.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyCapture tees the response body into a buffer up to limit bytes
// while forwarding everything to the client.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	if w.buf.Len() < w.limit {
		room := w.limit - w.buf.Len()
		if len(b) <= room {
			w.buf.Write(b)
		} else {
			w.buf.Write(b[:room])
		}
	}
	return w.ResponseWriter.Write(b)
}

// NewRedisCache caches successful GET responses in Redis. variant lets the
// route partition its cache beyond the URL, e.g. by caller tier. A nil
// Redis client or disabled config degrades to a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, variant func(echo.Context) string) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c, variant)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					c.Response().Header().Set(echo.HeaderContentType, cached.ContentType)
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(cached.Status, cached.ContentType, cached.Body)
				}
			}

			capw := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = capw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			// Only cache complete 200 responses; oversized bodies were
			// truncated by the capture and must not be served from cache.
			if capw.status == http.StatusOK && capw.buf.Len() < cfg.MaxBodyBytes {
				payload, err := json.Marshal(cachedResponse{
					Status:      capw.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        capw.buf.Bytes(),
				})
				if err == nil {
					_ = rdb.SetEx(context.Background(), key, payload, cfg.TTL).Err()
				}
			}
			return nil
		}
	}
}

func cacheKey(prefix string, c echo.Context, variant func(echo.Context) string) string {
	v := ""
	if variant != nil {
		v = variant(c)
	}
	tail := c.Path() + "?" + c.Request().URL.RawQuery + "#" + v
	return fmt.Sprintf("%s:%x", prefix, sha1.Sum([]byte(tail)))
}
