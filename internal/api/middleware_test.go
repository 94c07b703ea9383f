package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/collablink/collab-server/internal/database"
)

func TestErrorHandler(t *testing.T) {
	db := &database.MockRepository{}
	app, _, _ := newTestApp(t, db)

	t.Run("recovers from a panic", func(t *testing.T) {
		handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		rr := httptest.NewRecorder()

		assert.NotPanics(t, func() {
			handler.ServeHTTP(rr, req)
		}, "expected the panic to be recovered")

		assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected a 500 response")
		assert.Equal(t, "close", rr.Header().Get("Connection"), "expected the connection to be closed")
		assert.Contains(t, rr.Body.String(), "internal server error", "expected the generic error body")
	})

	t.Run("passes healthy requests through", func(t *testing.T) {
		handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusTeapot, rr.Code, "expected the inner handler's response")
	})
}
