package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func perform(allowed []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(allowed))
	r.GET("/timetables/runs", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/timetables/runs", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/timetables/runs", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowedOriginIsReflected(t *testing.T) {
	w := perform([]string{"https://sekolah.example/"}, http.MethodGet, "https://SEKOLAH.example")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://SEKOLAH.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestUnknownOriginIsNotReflected(t *testing.T) {
	w := perform([]string{"https://sekolah.example"}, http.MethodGet, "https://evil.example")

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestWildcardWithoutOrigin(t *testing.T) {
	w := perform(nil, http.MethodGet, "")

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPreflightShortCircuits(t *testing.T) {
	w := perform(nil, http.MethodOptions, "https://sekolah.example")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}
