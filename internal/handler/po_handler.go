package handler

import (
	"net/http"
	"strconv"

	"nimbus-backend/internal/middleware"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/service"
	"nimbus-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PurchaseOrderHandler struct {
	poService service.PurchaseOrderService
}

func NewPurchaseOrderHandler(poService service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{poService: poService}
}

func (h *PurchaseOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/purchase-orders")
	orders.Use(middleware.Identify())
	{
		orders.GET("", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapRead), h.List)
		orders.GET("/:id", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapRead), h.Get)
		orders.POST("", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapCreate), h.Create)
		orders.POST("/recalculate", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapRead), h.Recalculate)
		orders.POST("/:id/transition", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapUpdate), h.ExecuteTransition)
		orders.GET("/:id/transitions", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapRead), h.AvailableTransitions)
		orders.POST("/:id/payments", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapUpdate), h.RecordPayment)
		orders.POST("/:id/delivered", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapUpdate), h.FlagDelivered)
		orders.GET("/:id/history", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapRead), h.History)
		orders.GET("/:id/payments", middleware.RequireCapability(model.EntityPurchaseOrder, model.CapRead), h.Payments)
	}
}

// List returns purchase orders with filters, pagination and overdue flags
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "Status filter"
// @Param        supplier_id  query     string  false  "Supplier filter"
// @Param        date_from    query     string  false  "PO date lower bound (YYYY-MM-DD)"
// @Param        date_to      query     string  false  "PO date upper bound (YYYY-MM-DD)"
// @Param        search       query     string  false  "PO number substring"
// @Param        page         query     int     false  "Page"   default(1)
// @Param        limit        query     int     false  "Limit"  default(10)
// @Success      200          {object}  response.Response{data=service.POListResponse}
// @Router       /purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	req := service.ListPORequest{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		DateFrom:   c.Query("date_from"),
		DateTo:     c.Query("date_to"),
		Search:     c.Query("search"),
		Page:       page,
		Limit:      limit,
	}

	list, err := h.poService.List(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, list))
}

// Get returns a purchase order with its lines and overdue flag
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid purchase order id"))
		return
	}

	detail, err := h.poService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// Create validates and creates a purchase order with frozen totals
// @Summary      Create a purchase order
// @Description  Runs the full financial pipeline and assigns the daily PO number
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePORequest  true  "Purchase order"
// @Success      201      {object}  response.Response{data=service.PODetailResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.poService.Create(c.Request.Context(), req, middleware.GetActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, detail))
}

// Recalculate previews the financial pipeline without persisting anything
// @Summary      Preview purchase order totals
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RecalculateRequest  true  "Financial inputs"
// @Success      200      {object}  response.Response{data=service.RecalculateResponse}
// @Failure      400      {object}  response.Response
// @Router       /purchase-orders/recalculate [post]
func (h *PurchaseOrderHandler) Recalculate(c *gin.Context) {
	var req service.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	totals, err := h.poService.Recalculate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, totals))
}

// ExecuteTransition moves the order along a configured workflow edge
// @Summary      Execute a workflow transition
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Purchase order ID"
// @Param        payload  body      service.TransitionPORequest  true  "Target status"
// @Success      200      {object}  response.Response{data=model.PurchaseOrder}
// @Failure      409      {object}  response.Response
// @Router       /purchase-orders/{id}/transition [post]
func (h *PurchaseOrderHandler) ExecuteTransition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid purchase order id"))
		return
	}

	var req service.TransitionPORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	po, err := h.poService.ExecuteTransition(c.Request.Context(), id, req, middleware.GetActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, po))
}

// AvailableTransitions lists the edges the caller's roles unlock
func (h *PurchaseOrderHandler) AvailableTransitions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid purchase order id"))
		return
	}

	transitions, err := h.poService.AvailableTransitions(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transitions))
}

// RecordPayment appends a payment to the order's ledger
// @Summary      Record a payment
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Purchase order ID"
// @Param        payload  body      service.RecordPaymentRequest  true  "Payment"
// @Success      200      {object}  response.Response{data=model.PurchaseOrder}
// @Failure      400      {object}  response.Response
// @Router       /purchase-orders/{id}/payments [post]
func (h *PurchaseOrderHandler) RecordPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid purchase order id"))
		return
	}

	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	po, err := h.poService.RecordPayment(c.Request.Context(), id, req, middleware.GetActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, po))
}

// FlagDelivered stamps the delivery date
func (h *PurchaseOrderHandler) FlagDelivered(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid purchase order id"))
		return
	}

	var req service.FlagDeliveredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	po, err := h.poService.FlagDelivered(c.Request.Context(), id, req, middleware.GetActor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, po))
}

// History returns the status change log
func (h *PurchaseOrderHandler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid purchase order id"))
		return
	}

	logs, err := h.poService.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

// Payments returns the payment ledger
func (h *PurchaseOrderHandler) Payments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid purchase order id"))
		return
	}

	logs, err := h.poService.Payments(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
