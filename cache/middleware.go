package cache

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware serves public GET responses for one content kind from the
// store and captures misses on the way out. Only 200s are cached.
func Middleware(store *Store, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := Key(kind, c.Request.URL.Path, c.Request.URL.RawQuery)

		if payload, contentType, ok := store.Get(key); ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, contentType, payload)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")
		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			store.Set(key, writer.body.Bytes(), c.Writer.Header().Get("Content-Type"))
		}
	}
}
