package stats

import (
	"expvar"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// expvar maps register globally, so the updater is constructed once and
// shared by the subtests.
func TestStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	su.Run()
	defer su.Stop()

	su.RegisterMetric("TestMetric")

	t.Run("incr and decr", func(t *testing.T) {
		su.Incr("TestMetric")
		su.Incr("TestMetric")
		su.Decr("TestMetric")

		assert.Eventually(t, func() bool {
			return su.vars.Get("TestMetric").(*expvar.Int).Value() == 1
		}, time.Second, 10*time.Millisecond, "expected metric to settle at 1")
	})

	t.Run("unknown metric is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() {
			su.Incr("NeverRegistered")
		}, "expected updates to unregistered metrics to be dropped")
	})

	t.Run("expvar handler serves metrics", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
		rr := httptest.NewRecorder()

		mux.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected handler to respond")
		assert.Contains(t, rr.Body.String(), "TestMetric", "expected registered metric in output")
		assert.Contains(t, rr.Body.String(), "Uptime", "expected uptime in output")
	})
}
