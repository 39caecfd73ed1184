package handler

import (
	"net/http"

	"panjar/internal/middleware"
	"panjar/internal/service"
	"panjar/internal/workflow"
	"panjar/pkg/response"

	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	itemService service.ItemService
	auth        *middleware.Auth
}

func NewItemHandler(itemService service.ItemService, auth *middleware.Auth) *ItemHandler {
	return &ItemHandler{itemService: itemService, auth: auth}
}

func (h *ItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/api/panjar-items")
	items.Use(h.auth.RequireAuth())
	{
		items.PUT("/bulk-status", h.BulkUpdateStatus)

		items.GET("/:id", h.GetItem)
		items.PUT("/:id", h.UpdateItem)
		items.DELETE("/:id", h.auth.RequireRole(workflow.RoleNameCreator), h.DeleteItem)
		items.PATCH("/:id/status", h.UpdateStatus)
		items.GET("/:id/histories", h.GetHistory)
		items.GET("/:id/timeline", h.GetTimeline)
		items.GET("/:id/transitions", h.AllowedTransitions)

		items.POST("/:id/verify", h.shortcut(workflow.StatusVerified))
		items.POST("/:id/approve", h.shortcut(workflow.StatusApproved))
		items.POST("/:id/reject", h.shortcut(workflow.StatusRejected))
		items.POST("/:id/revise", h.shortcut(workflow.StatusRevision))
	}
}

// GetItem returns one item
// @Summary      Get panjar item
// @Tags         panjar-items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.ItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/panjar-items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := h.itemService.GetItem(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// UpdateItem edits item fields; a changed status goes through the transition rules
// @Summary      Update panjar item
// @Tags         panjar-items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Item ID"
// @Param        payload  body      service.UpdateItemRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/panjar-items/{id} [put]
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	item, err := h.itemService.UpdateItem(c.Request.Context(), id, req, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem removes an item that is still pending or under revision
// @Summary      Delete panjar item
// @Tags         panjar-items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/panjar-items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.itemService.DeleteItem(c.Request.Context(), id, actor); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Item deleted successfully"))
}

// UpdateStatus moves one item to a new status
// @Summary      Update item status
// @Tags         panjar-items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Item ID"
// @Param        payload  body      service.UpdateStatusRequest  true  "Target status and note"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/panjar-items/{id}/status [patch]
func (h *ItemHandler) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	item, err := h.itemService.UpdateStatus(c.Request.Context(), id, req, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Status item berhasil diperbarui", item))
}

// BulkUpdateStatus applies several status changes atomically
// @Summary      Bulk update item status
// @Tags         panjar-items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BulkStatusRequest  true  "Items to update"
// @Success      200      {object}  response.Response{data=[]service.ItemResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/panjar-items/bulk-status [put]
func (h *ItemHandler) BulkUpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req service.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	items, err := h.itemService.BulkUpdateStatus(c.Request.Context(), req, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Status item berhasil diperbarui", items))
}

// GetHistory returns the status history of an item, newest first
// @Summary      Item status history
// @Tags         panjar-items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=[]service.HistoryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/panjar-items/{id}/histories [get]
func (h *ItemHandler) GetHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	history, err := h.itemService.GetHistory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}

// GetTimeline is GetHistory in chronological order
func (h *ItemHandler) GetTimeline(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	timeline, err := h.itemService.GetTimeline(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, timeline))
}

// AllowedTransitions lists the statuses the caller may set on the item
// @Summary      Allowed item transitions
// @Tags         panjar-items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=[]string}
// @Router       /api/panjar-items/{id}/transitions [get]
func (h *ItemHandler) AllowedTransitions(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	targets, err := h.itemService.AllowedTransitions(c.Request.Context(), id, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, targets))
}

type shortcutBody struct {
	Note    string `json:"note"`
	Version *int   `json:"version"`
}

// shortcut builds a handler that sets a fixed status, e.g. POST /:id/approve.
func (h *ItemHandler) shortcut(status workflow.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c)
		if !ok {
			return
		}

		var body shortcutBody
		if !bindOptionalJSON(c, &body) {
			return
		}

		req := service.UpdateStatusRequest{Status: string(status), Note: body.Note, Version: body.Version}
		item, err := h.itemService.UpdateStatus(c.Request.Context(), id, req, actor)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
	}
}
