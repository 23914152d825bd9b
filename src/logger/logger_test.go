package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Run("Sets level and formatter", func(t *testing.T) {
		require.NoError(t, Init("debug", true))

		assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

		require.NoError(t, Init("info", false))
		assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)
	})

	t.Run("Installs a single span hook", func(t *testing.T) {
		require.NoError(t, Init("info", false))
		require.NoError(t, Init("info", false))

		hooks := logrus.StandardLogger().Hooks
		assert.Len(t, hooks[logrus.ErrorLevel], 1)
		assert.Len(t, hooks[logrus.InfoLevel], 1)
		assert.Empty(t, hooks[logrus.DebugLevel])
	})

	t.Run("Rejects unknown levels", func(t *testing.T) {
		assert.Error(t, Init("loud", false))
	})
}

func TestMiddleware(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/workspace/state", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
