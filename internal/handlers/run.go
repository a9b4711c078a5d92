package handlers

import (
	"github.com/QAStudio-Dev/studio-sub003/internal/middleware"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

type RunHandler struct {
	runService *services.RunService
}

func NewRunHandler(runService *services.RunService) *RunHandler {
	return &RunHandler{runService: runService}
}

// Create opens a new run
// POST /api/projects/:id/runs
func (h *RunHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	run, err := h.runService.CreateRun(projectID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, run)
}

// List returns a project's runs
// GET /api/projects/:id/runs
func (h *RunHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	runs, err := h.runService.ListRuns(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, runs)
}

// Get returns one run
// GET /api/runs/:id
func (h *RunHandler) Get(c *gin.Context) {
	runID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid run id")
		return
	}

	run, err := h.runService.GetRun(runID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, run)
}

// RecordResult upserts one case outcome
// POST /api/runs/:id/results
func (h *RunHandler) RecordResult(c *gin.Context) {
	runID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid run id")
		return
	}

	var req services.RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.runService.RecordResult(runID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListResults returns a run's recorded results
// GET /api/runs/:id/results
func (h *RunHandler) ListResults(c *gin.Context) {
	runID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid run id")
		return
	}

	results, err := h.runService.ListResults(runID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, results)
}

// Close finalizes the run and notifies integrations
// POST /api/runs/:id/close
func (h *RunHandler) Close(c *gin.Context) {
	runID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid run id")
		return
	}

	run, err := h.runService.CloseRun(c.Request.Context(), runID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, run)
}
