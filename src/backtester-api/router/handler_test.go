package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
	"github.com/jiaming2012/backtest-workspace/src/backtester-api/services"
	"github.com/jiaming2012/backtest-workspace/src/backtester-api/store"
)

const settingsBody = `{"settings": {
	"balance": "1000",
	"order_volume": "100",
	"leverage": 2,
	"from_time": "2024-01-01T00:00:00Z",
	"to_time": "2024-02-01T00:00:00Z",
	"token_addresses": ["BTC"]
}}`

func newTestRouter(t *testing.T) (*mux.Router, *models.MockSimulator) {
	t.Helper()

	sim := models.NewMockSimulator()
	sim.SetResult(&models.BacktestResult{Account: "0xA", Profit: 10, Roi: 1, TotalTrade: 4, TotalWin: 3, TotalLose: 1})

	svc := services.NewWorkspaceService(store.NewStore(), sim, nil, services.NewResultsCache(0), time.Second)

	r := mux.NewRouter()
	SetupHandler(r.PathPrefix("/workspace").Subrouter(), svc, time.Second)

	return r, sim
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into), w.Body.String())
}

func seed(t *testing.T, r http.Handler) (homeID, instanceID string) {
	t.Helper()

	w := do(t, r, http.MethodPost, "/workspace/homes/current/traders", `{"traders":[{"account":"0xA","protocol":"GMX"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var home idResponse
	decode(t, w, &home)

	w = do(t, r, http.MethodPost, "/workspace/homes/current/instances", `{"list_trader":["0xA"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var instance idResponse
	decode(t, w, &instance)

	return home.ID, instance.ID
}

func TestWorkspaceHandlers(t *testing.T) {
	t.Run("Builds, simulates and exports an instance", func(t *testing.T) {
		r, sim := newTestRouter(t)
		homeID, instanceID := seed(t, r)
		instancePath := "/workspace/homes/" + homeID + "/instances/" + instanceID

		w := do(t, r, http.MethodPatch, instancePath, settingsBody)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(t, r, http.MethodPost, instancePath+"/simulate", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var simulated models.TestInstance
		decode(t, w, &simulated)
		assert.Equal(t, models.InstanceStageSimulated, simulated.Stage)
		assert.Len(t, simulated.BacktestResult, 1)
		assert.Len(t, sim.Requests(), 1)

		w = do(t, r, http.MethodGet, instancePath+"/summary", "")
		require.Equal(t, http.StatusOK, w.Code)

		var summary services.ResultSummary
		decode(t, w, &summary)
		assert.InDelta(t, 75, summary.WinRate, 1e-9)

		w = do(t, r, http.MethodGet, instancePath+"/results.csv", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "account,protocol,"))

		w = do(t, r, http.MethodGet, "/workspace/state", "")
		var state stateResponse
		decode(t, w, &state)
		assert.True(t, state.State.HomeInstancesMapping[homeID].IsTested)
	})

	t.Run("Branches and removes a subtree", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, instanceID := seed(t, r)
		instancePath := "/workspace/homes/" + homeID + "/instances/" + instanceID

		w := do(t, r, http.MethodPost, instancePath+"/branch", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var child models.TestInstance
		decode(t, w, &child)
		assert.Equal(t, "1 - 1", child.Name)

		w = do(t, r, http.MethodGet, "/workspace/homes/current/tree", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), child.ID)

		w = do(t, r, http.MethodDelete, instancePath+"?cascade=true", "")
		require.Equal(t, http.StatusOK, w.Code)

		var state stateResponse
		decode(t, w, &state)
		home := state.State.HomeInstancesMapping[homeID]
		assert.Empty(t, home.BacktestInstancesMapping)
		assert.Empty(t, home.RootBacktestInstancesByIds)
		assert.Nil(t, home.CurrentBacktestInstanceID)
	})

	t.Run("Adds an instance under a parent", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, instanceID := seed(t, r)

		w := do(t, r, http.MethodPost, "/workspace/homes/current/instances", `{"list_trader":["0xA"]}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = do(t, r, http.MethodPost, "/workspace/homes/"+homeID+"/instances", `{"id":"custom","parent_id":"`+instanceID+`","list_trader":["0xA"]}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var created idResponse
		decode(t, w, &created)
		assert.Equal(t, "custom", created.ID)

		w = do(t, r, http.MethodGet, "/workspace/homes/"+homeID+"/instances/custom", "")
		require.Equal(t, http.StatusOK, w.Code)

		var data store.CommonData
		decode(t, w, &data)
		assert.Equal(t, "1 - 1", data.Instance.Name)
		assert.True(t, data.Instance.IsVisible)

		w = do(t, r, http.MethodPost, "/workspace/homes/"+homeID+"/instances", `{"id":"custom"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Updates home flags and focus", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, _ := seed(t, r)

		w := do(t, r, http.MethodPatch, "/workspace/homes/current", `{"is_showed_warning_delete_trader":true}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(t, r, http.MethodPut, "/workspace/state/focus", `{"value":true}`)
		require.Equal(t, http.StatusOK, w.Code)

		var state stateResponse
		decode(t, w, &state)
		assert.True(t, state.State.IsFocusBacktest)
		assert.True(t, state.State.HomeInstancesMapping[homeID].IsShowedWarningDeleteTrader)
	})

	t.Run("Clears the current instance", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, _ := seed(t, r)

		w := do(t, r, http.MethodPut, "/workspace/homes/"+homeID+"/current-instance", `{"instance_id":null}`)
		require.Equal(t, http.StatusOK, w.Code)

		var state stateResponse
		decode(t, w, &state)
		assert.Nil(t, state.State.HomeInstancesMapping[homeID].CurrentBacktestInstanceID)
	})

	t.Run("Removing the last trader resets the store", func(t *testing.T) {
		r, _ := newTestRouter(t)
		seed(t, r)

		w := do(t, r, http.MethodDelete, "/workspace/homes/current/traders", `{"accounts":["0xA"]}`)
		require.Equal(t, http.StatusOK, w.Code)

		var state stateResponse
		decode(t, w, &state)
		assert.Empty(t, state.State.HomeInstancesMapping)
		assert.Nil(t, state.State.CurrentHomeInstanceID)
	})

	t.Run("Removes homes and resets", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, _ := seed(t, r)

		w := do(t, r, http.MethodDelete, "/workspace/homes/"+homeID, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = do(t, r, http.MethodDelete, "/workspace/homes/"+homeID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		seed(t, r)
		w = do(t, r, http.MethodPost, "/workspace/state/reset", "")
		require.Equal(t, http.StatusOK, w.Code)

		var state stateResponse
		decode(t, w, &state)
		assert.Empty(t, state.State.HomeInstancesByIds)
	})
}

func TestWorkspaceHandlerErrors(t *testing.T) {
	t.Run("Unknown ids are not found", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, _ := seed(t, r)

		w := do(t, r, http.MethodGet, "/workspace/homes/"+homeID+"/instances/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = do(t, r, http.MethodPatch, "/workspace/homes/missing/instances/missing", `{}`)
		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp errorResponse
		decode(t, w, &resp)
		assert.Equal(t, models.ErrHomeInstanceNotFound.Error(), resp.Msg)
	})

	t.Run("The current alias needs a current home", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := do(t, r, http.MethodGet, "/workspace/homes/current/tree", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Malformed bodies are bad requests", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := do(t, r, http.MethodPost, "/workspace/homes/current/traders", `{"traders":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(t, r, http.MethodPost, "/workspace/homes/current/traders", `{"traders":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid stages are bad requests", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, instanceID := seed(t, r)

		w := do(t, r, http.MethodPatch, "/workspace/homes/"+homeID+"/instances/"+instanceID, `{"stage":"flying"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Simulating without settings is a bad request", func(t *testing.T) {
		r, sim := newTestRouter(t)
		homeID, instanceID := seed(t, r)

		w := do(t, r, http.MethodPost, "/workspace/homes/"+homeID+"/instances/"+instanceID+"/simulate", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, sim.Requests())
	})

	t.Run("Cascade must be a boolean", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, instanceID := seed(t, r)

		w := do(t, r, http.MethodDelete, "/workspace/homes/"+homeID+"/instances/"+instanceID+"?cascade=maybe", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Wrong methods are rejected", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := do(t, r, http.MethodPost, "/workspace/state", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp errorResponse
		decode(t, w, &resp)
		assert.Equal(t, "handleMethodNotAllowed", resp.Type)

		w = do(t, r, http.MethodPost, "/workspace/unknown", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Results export for a missing home names the home", func(t *testing.T) {
		r, _ := newTestRouter(t)
		_, instanceID := seed(t, r)

		w := do(t, r, http.MethodGet, "/workspace/homes/missing/instances/"+instanceID+"/results.csv", "")
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp errorResponse
		decode(t, w, &resp)
		assert.Contains(t, resp.Msg, "home instance missing")
	})

	t.Run("Results export for a missing instance is not found", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, _ := seed(t, r)

		w := do(t, r, http.MethodGet, "/workspace/homes/"+homeID+"/instances/missing/results.csv", "")
		require.Equal(t, http.StatusNotFound, w.Code)

		var resp errorResponse
		decode(t, w, &resp)
		assert.Contains(t, resp.Msg, "backtest instance missing")
	})

	t.Run("Spans are tagged with the route template", func(t *testing.T) {
		r, _ := newTestRouter(t)
		homeID, instanceID := seed(t, r)

		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		handler := otelhttp.NewHandler(r, "workspace", otelhttp.WithTracerProvider(tp))

		w := do(t, handler, http.MethodGet, "/workspace/homes/"+homeID+"/instances/"+instanceID, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Attributes(), attribute.String("http.route", "/workspace/homes/{homeId}/instances/{id}"))
	})
}

func TestStream(t *testing.T) {
	t.Run("Sends a snapshot then every change", func(t *testing.T) {
		r, _ := newTestRouter(t)
		srv := httptest.NewServer(r)
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/workspace/stream"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		var snapshot store.StateChange
		require.NoError(t, conn.ReadJSON(&snapshot))
		assert.Equal(t, "snapshot", snapshot.Action)
		assert.Equal(t, uint64(0), snapshot.Version)

		res, err := http.Post(srv.URL+"/workspace/homes/current/traders", "application/json", strings.NewReader(`{"traders":[{"account":"0xA"}]}`))
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var change store.StateChange
		require.NoError(t, conn.ReadJSON(&change))
		assert.Equal(t, "addTraderToHomeInstance", change.Action)
		assert.Equal(t, uint64(1), change.Version)
		assert.Len(t, change.State.HomeInstancesByIds, 1)
	})
}
