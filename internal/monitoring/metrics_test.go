package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsIndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewMetrics()
	b := NewMetrics()
	a.RecordTraversal()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.TraversalRejections))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.TraversalRejections))
}

func TestRecordFileOp(t *testing.T) {
	m := NewMetrics()
	m.RecordFileOp("read", "ok", 5*time.Millisecond)
	m.RecordFileOp("read", "error", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FileOps.WithLabelValues("read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FileOps.WithLabelValues("read", "error")))
}

func TestSetVolumeStats(t *testing.T) {
	m := NewMetrics()
	m.SetVolumeStats(10, 3, 4096)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.VolumeFiles))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.VolumeDirectories))
	assert.Equal(t, 4096.0, testutil.ToFloat64(m.VolumeBytes))
}

func TestMiddlewareRecordsByRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/files/*path", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/a/b.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// Labeled by the registered pattern, not the concrete URL.
	count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/files/*path", "200"))
	assert.Equal(t, 1.0, count)
}

func TestTimerNilMetrics(t *testing.T) {
	timer := NewTimer(nil, "read")
	timer.Stop("ok") // must not panic
}
