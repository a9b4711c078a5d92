package handlers

import (
	"github.com/QAStudio-Dev/studio-sub003/internal/middleware"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/gin-gonic/gin"
)

type SuiteHandler struct {
	suiteService *services.SuiteService
}

func NewSuiteHandler(suiteService *services.SuiteService) *SuiteHandler {
	return &SuiteHandler{suiteService: suiteService}
}

// Create adds a suite to a project
// POST /api/projects/:id/suites
func (h *SuiteHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.CreateSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	suite, err := h.suiteService.CreateSuite(projectID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, suite)
}

// List returns a project's suites
// GET /api/projects/:id/suites
func (h *SuiteHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	suites, err := h.suiteService.ListSuites(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, suites)
}

// Delete removes a suite and its cases
// DELETE /api/suites/:id
func (h *SuiteHandler) Delete(c *gin.Context) {
	suiteID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid suite id")
		return
	}

	if err := h.suiteService.DeleteSuite(suiteID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "suite deleted successfully"})
}

// CreateCase adds a case to a suite
// POST /api/suites/:id/cases
func (h *SuiteHandler) CreateCase(c *gin.Context) {
	suiteID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid suite id")
		return
	}

	var req services.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	testCase, err := h.suiteService.CreateCase(suiteID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, testCase)
}

// ListCases returns a suite's cases
// GET /api/suites/:id/cases
func (h *SuiteHandler) ListCases(c *gin.Context) {
	suiteID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid suite id")
		return
	}

	cases, err := h.suiteService.ListCases(suiteID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cases)
}

// UpdateCase applies partial updates to a case
// PUT /api/cases/:id
func (h *SuiteHandler) UpdateCase(c *gin.Context) {
	caseID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid case id")
		return
	}

	var req services.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	testCase, err := h.suiteService.UpdateCase(caseID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, testCase)
}

// DeleteCase removes a case
// DELETE /api/cases/:id
func (h *SuiteHandler) DeleteCase(c *gin.Context) {
	caseID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid case id")
		return
	}

	if err := h.suiteService.DeleteCase(caseID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "case deleted successfully"})
}
