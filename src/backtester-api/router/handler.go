package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/backtest-workspace/src/backtester-api/models"
	"github.com/jiaming2012/backtest-workspace/src/backtester-api/services"
	"github.com/jiaming2012/backtest-workspace/src/eventmodels"
)

const currentHomeAlias = "current"

var (
	workspace          *services.WorkspaceService
	streamWriteTimeout = 10 * time.Second
	queryDecoder       = newQueryDecoder()
)

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func NewErrorResponse(errType string, message string) *errorResponse {
	return &errorResponse{
		Type: errType,
		Msg:  message,
	}
}

type stateResponse struct {
	Version uint64             `json:"version"`
	State   *models.StoreState `json:"state"`
}

type idResponse struct {
	ID string `json:"id"`
}

func setResponse(response interface{}, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("SetResponse: encode: %w", err)
	}

	return nil
}

func setErrorResponse(errType string, statusCode int, err error, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := NewErrorResponse(errType, err.Error())
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		return encodeErr
	}

	return nil
}

// respondError picks the status from err: WebError status, store sentinel, or 500.
func respondError(errType string, err error, w http.ResponseWriter) {
	status := services.StatusCode(err)
	if status >= 500 {
		log.Errorf("%s: %v", errType, err)
	}

	setErrorResponse(errType, status, err, w)
}

func respondState(errType string, w http.ResponseWriter) {
	st := workspace.GetStore()
	response := stateResponse{Version: st.Version(), State: st.GetState()}

	if err := setResponse(response, w); err != nil {
		log.Errorf("%s: failed to set response: %v", errType, err)
	}
}

func decodeBody(r *http.Request, into interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return eventmodels.NewWebError(http.StatusBadRequest, "invalid request body", err)
	}

	return nil
}

// homeIDFromPath resolves the {homeId} path variable, accepting "current" for the current home.
func homeIDFromPath(r *http.Request) (string, error) {
	homeID := mux.Vars(r)["homeId"]
	if homeID != currentHomeAlias {
		return homeID, nil
	}

	home := workspace.GetStore().GetState().GetCurrentHomeInstance()
	if home == nil {
		return "", eventmodels.NewWebError(http.StatusNotFound, "no current home instance", models.ErrNoCurrentHomeInstance)
	}

	return home.ID, nil
}

func handleGetState(w http.ResponseWriter, r *http.Request) {
	respondState("handleGetState", w)
}

func handleResetState(w http.ResponseWriter, r *http.Request) {
	if err := workspace.Reset(); err != nil {
		respondError("handleResetState: failed to reset store", err, w)
		return
	}

	respondState("handleResetState", w)
}

type ToggleFocusRequest struct {
	Value *bool `json:"value"`
}

func handleToggleFocus(w http.ResponseWriter, r *http.Request) {
	var req ToggleFocusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError("handleToggleFocus", err, w)
		return
	}

	if err := workspace.GetStore().ToggleFocusBacktest(req.Value); err != nil {
		respondError("handleToggleFocus: failed to toggle focus", err, w)
		return
	}

	respondState("handleToggleFocus", w)
}

type SetCurrentHomeRequest struct {
	HomeID *string `json:"home_id"`
}

func handleSetCurrentHome(w http.ResponseWriter, r *http.Request) {
	var req SetCurrentHomeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError("handleSetCurrentHome", err, w)
		return
	}

	if err := workspace.GetStore().SetCurrentHomeInstanceID(req.HomeID); err != nil {
		respondError("handleSetCurrentHome: failed to set current home", err, w)
		return
	}

	respondState("handleSetCurrentHome", w)
}

func handleRemoveCurrentHome(w http.ResponseWriter, r *http.Request) {
	if err := workspace.GetStore().RemoveHomeInstance(); err != nil {
		respondError("handleRemoveCurrentHome: failed to remove home", err, w)
		return
	}

	respondState("handleRemoveCurrentHome", w)
}

type AddTradersRequest struct {
	Traders []*models.TraderData `json:"traders"`
}

func handleAddTraders(w http.ResponseWriter, r *http.Request) {
	var req AddTradersRequest
	if err := decodeBody(r, &req); err != nil {
		respondError("handleAddTraders", err, w)
		return
	}

	if len(req.Traders) == 0 {
		setErrorResponse("handleAddTraders", http.StatusBadRequest, fmt.Errorf("traders must not be empty"), w)
		return
	}

	for _, trader := range req.Traders {
		if trader == nil || trader.Account == "" {
			setErrorResponse("handleAddTraders", http.StatusBadRequest, fmt.Errorf("every trader needs an account"), w)
			return
		}
	}

	homeID, err := workspace.GetStore().AddTraderToHomeInstance(req.Traders...)
	if err != nil {
		respondError("handleAddTraders: failed to add traders", err, w)
		return
	}

	if err := setResponse(idResponse{ID: homeID}, w); err != nil {
		log.Errorf("handleAddTraders: failed to set response: %v", err)
	}
}

type RemoveTradersRequest struct {
	Accounts []string `json:"accounts"`
}

func handleRemoveTraders(w http.ResponseWriter, r *http.Request) {
	var req RemoveTradersRequest
	if err := decodeBody(r, &req); err != nil {
		respondError("handleRemoveTraders", err, w)
		return
	}

	if err := workspace.GetStore().RemoveTraderFromHomeInstance(req.Accounts...); err != nil {
		respondError("handleRemoveTraders: failed to remove traders", err, w)
		return
	}

	respondState("handleRemoveTraders", w)
}

type AddRootInstanceRequest struct {
	ListTrader []string `json:"list_trader"`
}

func handleAddRootInstance(w http.ResponseWriter, r *http.Request) {
	var req AddRootInstanceRequest
	if err := decodeBody(r, &req); err != nil {
		respondError("handleAddRootInstance", err, w)
		return
	}

	instanceID, err := workspace.GetStore().AddRootBacktestInstance(req.ListTrader)
	if err != nil {
		respondError("handleAddRootInstance: failed to add instance", err, w)
		return
	}

	if err := setResponse(idResponse{ID: instanceID}, w); err != nil {
		log.Errorf("handleAddRootInstance: failed to set response: %v", err)
	}
}

func handleUpdateHome(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleUpdateHome", err, w)
		return
	}

	var patch models.HomeInstancePatch
	if err := decodeBody(r, &patch); err != nil {
		respondError("handleUpdateHome", err, w)
		return
	}

	if err := workspace.GetStore().UpdateHomeInstance(homeID, patch); err != nil {
		respondError("handleUpdateHome: failed to update home", err, w)
		return
	}

	respondState("handleUpdateHome", w)
}

func handleRemoveHome(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleRemoveHome", err, w)
		return
	}

	if err := workspace.GetStore().RemoveHomeInstanceByID(homeID); err != nil {
		respondError("handleRemoveHome: failed to remove home", err, w)
		return
	}

	respondState("handleRemoveHome", w)
}

type SetCurrentInstanceRequest struct {
	InstanceID *string `json:"instance_id"`
}

func handleSetCurrentInstance(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleSetCurrentInstance", err, w)
		return
	}

	var req SetCurrentInstanceRequest
	if err := decodeBody(r, &req); err != nil {
		respondError("handleSetCurrentInstance", err, w)
		return
	}

	if err := workspace.GetStore().SetCurrentBacktestInstanceID(homeID, req.InstanceID); err != nil {
		respondError("handleSetCurrentInstance: failed to set current instance", err, w)
		return
	}

	respondState("handleSetCurrentInstance", w)
}

func handleRenderTree(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleRenderTree", err, w)
		return
	}

	home := workspace.GetStore().GetCommonData(homeID, "").Home
	if home == nil {
		respondError("handleRenderTree", models.ErrHomeInstanceNotFound, w)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := services.RenderTree(w, home); err != nil {
		log.Errorf("handleRenderTree: %v", err)
	}
}

type AddInstanceRequest struct {
	ID         string                   `json:"id"`
	ParentID   *string                  `json:"parent_id"`
	ListTrader []string                 `json:"list_trader"`
	Settings   *models.BacktestSettings `json:"settings"`
	Stage      models.InstanceStage     `json:"stage"`
	IsVisible  *bool                    `json:"is_visible"`
}

func (req *AddInstanceRequest) Validate() error {
	if req.Stage != "" {
		if err := req.Stage.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func handleAddInstance(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleAddInstance", err, w)
		return
	}

	var req AddInstanceRequest
	if err := decodeBody(r, &req); err != nil {
		respondError("handleAddInstance", err, w)
		return
	}

	if err := req.Validate(); err != nil {
		setErrorResponse("handleAddInstance: invalid request", http.StatusBadRequest, err, w)
		return
	}

	isVisible := true
	if req.IsVisible != nil {
		isVisible = *req.IsVisible
	}

	instanceID, err := workspace.GetStore().AddInstance(&models.TestInstance{
		ID:         req.ID,
		HomeID:     homeID,
		ParentID:   req.ParentID,
		ListTrader: req.ListTrader,
		Settings:   req.Settings,
		Stage:      req.Stage,
		IsVisible:  isVisible,
	})
	if err != nil {
		respondError("handleAddInstance: failed to add instance", err, w)
		return
	}

	if err := setResponse(idResponse{ID: instanceID}, w); err != nil {
		log.Errorf("handleAddInstance: failed to set response: %v", err)
	}
}

func handleGetInstance(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleGetInstance", err, w)
		return
	}

	data := workspace.GetStore().GetCommonData(homeID, mux.Vars(r)["id"])
	if data.Home == nil {
		respondError("handleGetInstance", models.ErrHomeInstanceNotFound, w)
		return
	}

	if data.Instance == nil {
		respondError("handleGetInstance", models.ErrInstanceNotFound, w)
		return
	}

	if err := setResponse(data, w); err != nil {
		log.Errorf("handleGetInstance: failed to set response: %v", err)
	}
}

func handleUpdateInstance(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleUpdateInstance", err, w)
		return
	}

	var patch models.TestInstancePatch
	if err := decodeBody(r, &patch); err != nil {
		respondError("handleUpdateInstance", err, w)
		return
	}

	patch.HomeID = homeID
	patch.ID = mux.Vars(r)["id"]

	if err := workspace.GetStore().UpdateInstance(patch); err != nil {
		respondError("handleUpdateInstance: failed to update instance", err, w)
		return
	}

	respondState("handleUpdateInstance", w)
}

type RemoveInstanceQuery struct {
	Cascade bool `schema:"cascade"`
}

func handleRemoveInstance(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleRemoveInstance", err, w)
		return
	}

	var query RemoveInstanceQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		setErrorResponse("handleRemoveInstance: failed to parse query", http.StatusBadRequest, err, w)
		return
	}

	if err := workspace.GetStore().RemoveInstance(homeID, mux.Vars(r)["id"], query.Cascade); err != nil {
		respondError("handleRemoveInstance: failed to remove instance", err, w)
		return
	}

	respondState("handleRemoveInstance", w)
}

func handleBranchInstance(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleBranchInstance", err, w)
		return
	}

	child, err := workspace.BranchInstance(homeID, mux.Vars(r)["id"])
	if err != nil {
		respondError("handleBranchInstance: failed to branch instance", err, w)
		return
	}

	if err := setResponse(child, w); err != nil {
		log.Errorf("handleBranchInstance: failed to set response: %v", err)
	}
}

func handleSimulate(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleSimulate", err, w)
		return
	}

	instance, err := workspace.RunSimulation(r.Context(), homeID, mux.Vars(r)["id"])
	if err != nil {
		respondError("handleSimulate: failed to run simulation", err, w)
		return
	}

	if err := setResponse(instance, w); err != nil {
		log.Errorf("handleSimulate: failed to set response: %v", err)
	}
}

func handleSummary(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleSummary", err, w)
		return
	}

	summary, err := workspace.Summarize(homeID, mux.Vars(r)["id"])
	if err != nil {
		respondError("handleSummary: failed to summarize", err, w)
		return
	}

	if err := setResponse(summary, w); err != nil {
		log.Errorf("handleSummary: failed to set response: %v", err)
	}
}

func handleResultsCSV(w http.ResponseWriter, r *http.Request) {
	homeID, err := homeIDFromPath(r)
	if err != nil {
		respondError("handleResultsCSV", err, w)
		return
	}

	instanceID := mux.Vars(r)["id"]

	var buf bytes.Buffer
	if err := workspace.ExportResultsCSV(&buf, homeID, instanceID); err != nil {
		respondError("handleResultsCSV: failed to export results", err, w)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "results-"+instanceID+".csv"))

	if _, err := buf.WriteTo(w); err != nil {
		log.Errorf("handleResultsCSV: failed to write response: %v", err)
	}
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	err := fmt.Errorf("method %s is not allowed on %s", r.Method, r.URL.Path)
	setErrorResponse("handleMethodNotAllowed", http.StatusMethodNotAllowed, err, w)
}

// handleFunc registers f for method and path, tagging the otelhttp span with the full route
// template, prefix included.
func handleFunc(router *mux.Router, method, path string, f http.HandlerFunc) {
	route := router.NewRoute().Path(path).Methods(method)

	pattern, err := route.GetPathTemplate()
	if err != nil {
		pattern = path
	}

	route.Handler(otelhttp.WithRouteTag(pattern, f))
}

func SetupHandler(router *mux.Router, svc *services.WorkspaceService, writeTimeout time.Duration) {
	workspace = svc
	if writeTimeout > 0 {
		streamWriteTimeout = writeTimeout
	}

	router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	handleFunc(router, http.MethodGet, "/state", handleGetState)
	handleFunc(router, http.MethodPost, "/state/reset", handleResetState)
	handleFunc(router, http.MethodPut, "/state/focus", handleToggleFocus)

	handleFunc(router, http.MethodPut, "/homes/current", handleSetCurrentHome)
	handleFunc(router, http.MethodDelete, "/homes/current", handleRemoveCurrentHome)
	handleFunc(router, http.MethodPost, "/homes/current/traders", handleAddTraders)
	handleFunc(router, http.MethodDelete, "/homes/current/traders", handleRemoveTraders)
	handleFunc(router, http.MethodPost, "/homes/current/instances", handleAddRootInstance)

	handleFunc(router, http.MethodPatch, "/homes/{homeId}", handleUpdateHome)
	handleFunc(router, http.MethodDelete, "/homes/{homeId}", handleRemoveHome)
	handleFunc(router, http.MethodPut, "/homes/{homeId}/current-instance", handleSetCurrentInstance)
	handleFunc(router, http.MethodGet, "/homes/{homeId}/tree", handleRenderTree)
	handleFunc(router, http.MethodPost, "/homes/{homeId}/instances", handleAddInstance)
	handleFunc(router, http.MethodGet, "/homes/{homeId}/instances/{id}", handleGetInstance)
	handleFunc(router, http.MethodPatch, "/homes/{homeId}/instances/{id}", handleUpdateInstance)
	handleFunc(router, http.MethodDelete, "/homes/{homeId}/instances/{id}", handleRemoveInstance)
	handleFunc(router, http.MethodPost, "/homes/{homeId}/instances/{id}/branch", handleBranchInstance)
	handleFunc(router, http.MethodPost, "/homes/{homeId}/instances/{id}/simulate", handleSimulate)
	handleFunc(router, http.MethodGet, "/homes/{homeId}/instances/{id}/summary", handleSummary)
	handleFunc(router, http.MethodGet, "/homes/{homeId}/instances/{id}/results.csv", handleResultsCSV)

	handleFunc(router, http.MethodGet, "/stream", handleStream)
}
