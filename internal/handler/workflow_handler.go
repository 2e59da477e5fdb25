package handler

import (
	"net/http"
	"strings"

	"nimbus-backend/internal/middleware"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/service"
	"nimbus-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WorkflowHandler struct {
	workflowService service.WorkflowService
}

func NewWorkflowHandler(workflowService service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

func (h *WorkflowHandler) RegisterRoutes(router *gin.RouterGroup) {
	workflow := router.Group("/api/workflow")
	workflow.Use(middleware.Identify())
	{
		workflow.GET("/statuses", middleware.RequireCapability(model.EntityWorkflow, model.CapRead), h.ListStatuses)
		workflow.POST("/statuses", middleware.RequireCapability(model.EntityWorkflow, model.CapCreate), h.CreateStatus)
		workflow.PUT("/statuses/:id", middleware.RequireCapability(model.EntityWorkflow, model.CapUpdate), h.UpdateStatus)
		workflow.DELETE("/statuses/:id", middleware.RequireCapability(model.EntityWorkflow, model.CapDelete), h.DeleteStatus)

		workflow.GET("/available", middleware.RequireCapability(model.EntityWorkflow, model.CapRead), h.AvailableFromStatus)
		workflow.GET("/transitions", middleware.RequireCapability(model.EntityWorkflow, model.CapRead), h.ListTransitions)
		workflow.POST("/transitions", middleware.RequireCapability(model.EntityWorkflow, model.CapCreate), h.CreateTransition)
		workflow.PUT("/transitions/:id", middleware.RequireCapability(model.EntityWorkflow, model.CapUpdate), h.UpdateTransition)
		workflow.DELETE("/transitions/:id", middleware.RequireCapability(model.EntityWorkflow, model.CapDelete), h.DeleteTransition)
	}
}

// ListStatuses returns the configured statuses of a document type
// @Summary      List document statuses
// @Tags         workflow
// @Produce      json
// @Security     BearerAuth
// @Param        document_type  query     string  false  "Document type"  default(Purchase Order)
// @Success      200            {object}  response.Response{data=[]model.DocumentStatus}
// @Router       /workflow/statuses [get]
func (h *WorkflowHandler) ListStatuses(c *gin.Context) {
	documentType := c.DefaultQuery("document_type", model.DocTypePurchaseOrder)
	statuses, err := h.workflowService.ListStatuses(c.Request.Context(), documentType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, statuses))
}

// CreateStatus adds a status to the registry
// @Summary      Create a document status
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateStatusRequest  true  "Status"
// @Success      201      {object}  response.Response{data=model.DocumentStatus}
// @Failure      400      {object}  response.Response
// @Router       /workflow/statuses [post]
func (h *WorkflowHandler) CreateStatus(c *gin.Context) {
	var req service.CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	status, err := h.workflowService.CreateStatus(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, status))
}

// UpdateStatus renames or reflags a status
// @Summary      Update a document status
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Status ID"
// @Param        payload  body      service.UpdateStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=model.DocumentStatus}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /workflow/statuses/{id} [put]
func (h *WorkflowHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid status id"))
		return
	}

	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	status, err := h.workflowService.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, status))
}

// DeleteStatus removes an unreferenced status
// @Summary      Delete a document status
// @Tags         workflow
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Status ID"
// @Success      200 {object}  response.Response
// @Failure      409 {object}  response.Response
// @Router       /workflow/statuses/{id} [delete]
func (h *WorkflowHandler) DeleteStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid status id"))
		return
	}

	if err := h.workflowService.DeleteStatus(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

// AvailableFromStatus lists the edges the caller's roles unlock from a status
// @Summary      List available transitions from a status
// @Tags         workflow
// @Produce      json
// @Security     BearerAuth
// @Param        document_type  query     string  false  "Document type"  default(Purchase Order)
// @Param        status         query     string  true   "Current status"
// @Success      200            {object}  response.Response{data=[]model.WorkflowTransition}
// @Failure      400            {object}  response.Response
// @Router       /workflow/available [get]
func (h *WorkflowHandler) AvailableFromStatus(c *gin.Context) {
	documentType := c.DefaultQuery("document_type", model.DocTypePurchaseOrder)
	status := strings.TrimSpace(c.Query("status"))
	if status == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "The status query parameter is required"))
		return
	}

	actor := middleware.GetActor(c)
	transitions, err := h.workflowService.AvailableTransitions(c.Request.Context(), documentType, model.StatusName(status), actor.RoleIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transitions))
}

// ListTransitions returns the transition graph of a document type
func (h *WorkflowHandler) ListTransitions(c *gin.Context) {
	documentType := c.DefaultQuery("document_type", model.DocTypePurchaseOrder)
	transitions, err := h.workflowService.ListTransitions(c.Request.Context(), documentType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transitions))
}

// CreateTransition adds a role-gated edge between two statuses
// @Summary      Create a workflow transition
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTransitionRequest  true  "Transition"
// @Success      201      {object}  response.Response{data=model.WorkflowTransition}
// @Failure      400      {object}  response.Response
// @Router       /workflow/transitions [post]
func (h *WorkflowHandler) CreateTransition(c *gin.Context) {
	var req service.CreateTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	transition, err := h.workflowService.CreateTransition(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, transition))
}

// UpdateTransition rewires an edge or its allowed roles
func (h *WorkflowHandler) UpdateTransition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid transition id"))
		return
	}

	var req service.UpdateTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	transition, err := h.workflowService.UpdateTransition(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transition))
}

// DeleteTransition removes an edge from the graph
func (h *WorkflowHandler) DeleteTransition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid transition id"))
		return
	}

	if err := h.workflowService.DeleteTransition(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}
