package handler

import (
	"context"
	"net/http"

	"panjar/internal/middleware"
	"panjar/internal/service"
	"panjar/internal/workflow"
	"panjar/pkg/pagination"
	"panjar/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PanjarHandler struct {
	panjarService service.PanjarService
	itemService   service.ItemService
	auth          *middleware.Auth
}

func NewPanjarHandler(panjarService service.PanjarService, itemService service.ItemService, auth *middleware.Auth) *PanjarHandler {
	return &PanjarHandler{panjarService: panjarService, itemService: itemService, auth: auth}
}

func (h *PanjarHandler) RegisterRoutes(router *gin.RouterGroup) {
	panjar := router.Group("/api/panjar")
	{
		panjar.GET("", h.auth.RequireAuth(), h.ListRequests)
		panjar.GET("/:id", h.auth.RequireAuth(), h.GetRequest)
		panjar.POST("", h.auth.RequireRole(workflow.RoleNameCreator), h.CreateRequest)
		panjar.PUT("/:id", h.auth.RequireRole(workflow.RoleNameCreator), h.UpdateRequest)
		panjar.DELETE("/:id", h.auth.RequireRole(workflow.RoleNameCreator), h.DeleteRequest)
		panjar.POST("/:id/items", h.auth.RequireRole(workflow.RoleNameCreator), h.CreateItem)

		panjar.POST("/:id/verify", h.auth.RequireRole(workflow.RoleNameVerifier), h.VerifyRequest)
		panjar.POST("/:id/approve", h.auth.RequireRole(workflow.RoleNameApprover), h.ApproveRequest)
		panjar.POST("/:id/reject", h.auth.RequireRole(workflow.RoleNameVerifier, workflow.RoleNameApprover), h.RejectRequest)
	}
}

// ListRequests returns panjar requests, optionally filtered by status and unit
// @Summary      List panjar requests
// @Tags         panjar
// @Produce      json
// @Security     BearerAuth
// @Param        status   query     string  false  "pending, verified, approved, rejected or revision"
// @Param        unit_id  query     string  false  "Unit ID"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200      {object}  response.Response{data=[]service.PanjarResponse,meta=pagination.Meta}
// @Failure      400      {object}  response.Response
// @Router       /api/panjar [get]
func (h *PanjarHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.PanjarFilter{
		Status: c.Query("status"),
		UnitID: c.Query("unit_id"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	requests, total, err := h.panjarService.ListRequests(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, params.Meta(total)))
}

// GetRequest returns one request with its items
// @Summary      Get panjar request
// @Tags         panjar
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Panjar request ID"
// @Success      200  {object}  response.Response{data=service.PanjarResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/panjar/{id} [get]
func (h *PanjarHandler) GetRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.panjarService.GetRequest(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CreateRequest creates a request together with its items
// @Summary      Create panjar request
// @Tags         panjar
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePanjarRequest  true  "Request with items"
// @Success      201      {object}  response.Response{data=service.PanjarResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/panjar [post]
func (h *PanjarHandler) CreateRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req service.CreatePanjarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.panjarService.CreateWithItems(c.Request.Context(), req, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.SuccessMessage(http.StatusCreated, "Panjar berhasil dibuat", result))
}

// UpdateRequest edits a request; a non-null items list replaces all items
// @Summary      Update panjar request
// @Tags         panjar
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Panjar request ID"
// @Param        payload  body      service.UpdatePanjarRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.PanjarResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/panjar/{id} [put]
func (h *PanjarHandler) UpdateRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdatePanjarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.panjarService.UpdateWithItems(c.Request.Context(), id, req, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Panjar berhasil diperbarui", result))
}

// DeleteRequest removes a request with its items and histories
// @Summary      Delete panjar request
// @Tags         panjar
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Panjar request ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/panjar/{id} [delete]
func (h *PanjarHandler) DeleteRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.panjarService.DeleteRequest(c.Request.Context(), id, actor); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Panjar deleted successfully"))
}

// CreateItem adds one item to an existing request
// @Summary      Add item to panjar request
// @Tags         panjar-items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Panjar request ID"
// @Param        payload  body      service.ItemInput  true  "Item"
// @Success      201      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/panjar/{id}/items [post]
func (h *PanjarHandler) CreateItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.itemService.CreateItem(c.Request.Context(), id, req, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// VerifyRequest verifies a pending request and all of its items
// @Summary      Verify panjar request
// @Tags         panjar
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true   "Panjar request ID"
// @Param        payload  body      service.ReviewRequest  false  "Optional note"
// @Success      200      {object}  response.Response{data=service.PanjarResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/panjar/{id}/verify [post]
func (h *PanjarHandler) VerifyRequest(c *gin.Context) {
	h.review(c, h.panjarService.VerifyRequest, "Panjar berhasil diverifikasi")
}

// ApproveRequest approves a verified request and all of its items
// @Summary      Approve panjar request
// @Tags         panjar
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true   "Panjar request ID"
// @Param        payload  body      service.ReviewRequest  false  "Optional note"
// @Success      200      {object}  response.Response{data=service.PanjarResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/panjar/{id}/approve [post]
func (h *PanjarHandler) ApproveRequest(c *gin.Context) {
	h.review(c, h.panjarService.ApproveRequest, "Panjar berhasil disetujui")
}

// RejectRequest rejects a request and all of its items
// @Summary      Reject panjar request
// @Tags         panjar
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true   "Panjar request ID"
// @Param        payload  body      service.ReviewRequest  false  "Optional reason"
// @Success      200      {object}  response.Response{data=service.PanjarResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/panjar/{id}/reject [post]
func (h *PanjarHandler) RejectRequest(c *gin.Context) {
	h.review(c, h.panjarService.RejectRequest, "Panjar berhasil ditolak")
}

type reviewFunc func(ctx context.Context, id uuid.UUID, note string, actor service.Actor) (service.PanjarResponse, error)

func (h *PanjarHandler) review(c *gin.Context, fn reviewFunc, message string) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.ReviewRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := fn(c.Request.Context(), id, req.Note, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, message, result))
}
