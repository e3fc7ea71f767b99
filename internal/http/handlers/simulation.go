package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/hairsim-backend/internal/http/response"
	"github.com/yungbote/hairsim-backend/internal/services"
	"github.com/yungbote/hairsim-backend/internal/simerr"
)

type SimulationHandler struct {
	sims services.SimulationService
}

func NewSimulationHandler(sims services.SimulationService) *SimulationHandler {
	return &SimulationHandler{sims: sims}
}

// GET /run-stablehair/:user_id/:request_id
//
// The path form exists for the main API, which has triggered runs this way
// since the first deployment. Synchronous on purpose: the caller wants the
// aggregate in the response body.
func (h *SimulationHandler) RunSimulationByPath(c *gin.Context) {
	userID, requestID, ok := pairFromPath(c)
	if !ok {
		return
	}
	agg, err := h.sims.Run(c.Request.Context(), userID, requestID)
	if err != nil {
		status, code := statusForRunError(err)
		response.RespondError(c, status, code, err)
		return
	}
	// The path form returns the bare aggregate; callers of it predate the
	// status envelope.
	response.RespondOK(c, agg)
}

type runRequest struct {
	UserID    int64 `json:"user_id" binding:"required"`
	RequestID int64 `json:"request_id" binding:"required"`
}

// POST /run-stablehair
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	agg, err := h.sims.Run(c.Request.Context(), req.UserID, req.RequestID)
	if err != nil {
		status, code := statusForRunError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "success", "result": agg})
}

// GET /runs/:user_id/:request_id
func (h *SimulationHandler) GetLatestRun(c *gin.Context) {
	userID, requestID, ok := pairFromPath(c)
	if !ok {
		return
	}
	run, err := h.sims.GetLatestRun(c.Request.Context(), userID, requestID)
	if err != nil {
		if errors.Is(err, simerr.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "run_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "get_run_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}

func pairFromPath(c *gin.Context) (int64, int64, bool) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return 0, 0, false
	}
	requestID, err := strconv.ParseInt(c.Param("request_id"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_id", err)
		return 0, 0, false
	}
	return userID, requestID, true
}

func statusForRunError(err error) (int, string) {
	switch {
	case errors.Is(err, simerr.ErrNotFound):
		return http.StatusNotFound, "request_not_found"
	case errors.Is(err, simerr.ErrNoCandidates):
		return http.StatusUnprocessableEntity, "no_candidates"
	case errors.Is(err, simerr.ErrRunInFlight):
		return http.StatusConflict, "run_in_flight"
	case simerr.IsTimeout(err):
		return http.StatusGatewayTimeout, "engine_timeout"
	default:
		return http.StatusInternalServerError, "simulation_failed"
	}
}
