package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string, string) {
	gin.SetMode(gin.TestMode)
	var fromGin, fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, fromGin, fromCtx
}

func TestMiddlewareKeepsClientID(t *testing.T) {
	w, fromGin, fromCtx := serve("batch-42.retry_1")

	assert.Equal(t, "batch-42.retry_1", w.Header().Get(Header))
	assert.Equal(t, "batch-42.retry_1", fromGin)
	assert.Equal(t, "batch-42.retry_1", fromCtx)
}

func TestMiddlewareGeneratesID(t *testing.T) {
	w, fromGin, fromCtx := serve("")

	_, err := uuid.Parse(fromGin)
	assert.NoError(t, err)
	assert.Equal(t, fromGin, fromCtx)
	assert.Equal(t, fromGin, w.Header().Get(Header))
}

func TestMiddlewareReplacesUnsafeID(t *testing.T) {
	_, fromGin, _ := serve("bad id\nwith newline")

	assert.NotContains(t, fromGin, " ")
	_, err := uuid.Parse(fromGin)
	assert.NoError(t, err)
}

func TestFromContextEmpty(t *testing.T) {
	assert.Equal(t, "", FromContext(context.Background()))
}
