package handler

import (
	"net/http"

	"nimbus-backend/internal/middleware"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/service"
	"nimbus-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MasterDataHandler struct {
	masterData service.MasterDataService
}

func NewMasterDataHandler(masterData service.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{masterData: masterData}
}

func (h *MasterDataHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/api/suppliers")
	suppliers.Use(middleware.Identify())
	{
		suppliers.GET("", middleware.RequireCapability(model.EntitySupplier, model.CapRead), h.ListSuppliers)
		suppliers.POST("", middleware.RequireCapability(model.EntitySupplier, model.CapCreate), h.CreateSupplier)
		suppliers.PUT("/:id", middleware.RequireCapability(model.EntitySupplier, model.CapUpdate), h.UpdateSupplier)
		suppliers.DELETE("/:id", middleware.RequireCapability(model.EntitySupplier, model.CapDelete), h.DeleteSupplier)
	}

	uoms := router.Group("/api/uoms")
	uoms.Use(middleware.Identify())
	{
		uoms.GET("", middleware.RequireCapability(model.EntityItem, model.CapRead), h.ListUOMs)
		uoms.POST("", middleware.RequireCapability(model.EntityItem, model.CapCreate), h.CreateUOM)
		uoms.PUT("/:id", middleware.RequireCapability(model.EntityItem, model.CapUpdate), h.UpdateUOM)
		uoms.DELETE("/:id", middleware.RequireCapability(model.EntityItem, model.CapDelete), h.DeleteUOM)
	}

	items := router.Group("/api/items")
	items.Use(middleware.Identify())
	{
		items.GET("", middleware.RequireCapability(model.EntityItem, model.CapRead), h.ListItems)
		items.POST("", middleware.RequireCapability(model.EntityItem, model.CapCreate), h.CreateItem)
		items.PUT("/:id", middleware.RequireCapability(model.EntityItem, model.CapUpdate), h.UpdateItem)
		items.DELETE("/:id", middleware.RequireCapability(model.EntityItem, model.CapDelete), h.DeleteItem)
	}

	warehouses := router.Group("/api/warehouses")
	warehouses.Use(middleware.Identify())
	{
		warehouses.GET("", middleware.RequireCapability(model.EntityWarehouse, model.CapRead), h.ListWarehouses)
		warehouses.GET("/roots", middleware.RequireCapability(model.EntityWarehouse, model.CapRead), h.ListRootWarehouses)
		warehouses.POST("", middleware.RequireCapability(model.EntityWarehouse, model.CapCreate), h.CreateWarehouse)
		warehouses.PUT("/:id", middleware.RequireCapability(model.EntityWarehouse, model.CapUpdate), h.UpdateWarehouse)
		warehouses.DELETE("/:id", middleware.RequireCapability(model.EntityWarehouse, model.CapDelete), h.DeleteWarehouse)
	}
}

// --- Suppliers ---

func (h *MasterDataHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.masterData.ListSuppliers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, suppliers))
}

func (h *MasterDataHandler) CreateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.masterData.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

func (h *MasterDataHandler) UpdateSupplier(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	supplier, err := h.masterData.UpdateSupplier(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

func (h *MasterDataHandler) DeleteSupplier(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.masterData.DeleteSupplier(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

// --- Units of measure ---

func (h *MasterDataHandler) ListUOMs(c *gin.Context) {
	uoms, err := h.masterData.ListUOMs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, uoms))
}

func (h *MasterDataHandler) CreateUOM(c *gin.Context) {
	var req service.UOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	uom, err := h.masterData.CreateUOM(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, uom))
}

func (h *MasterDataHandler) UpdateUOM(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.UOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	uom, err := h.masterData.UpdateUOM(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, uom))
}

func (h *MasterDataHandler) DeleteUOM(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.masterData.DeleteUOM(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

// --- Items ---

func (h *MasterDataHandler) ListItems(c *gin.Context) {
	items, err := h.masterData.ListItems(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// CreateItem creates an item; the SKU is derived from the name
// @Summary      Create an item
// @Tags         master-data
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ItemRequest  true  "Item"
// @Success      201      {object}  response.Response{data=model.Item}
// @Failure      400      {object}  response.Response
// @Router       /items [post]
func (h *MasterDataHandler) CreateItem(c *gin.Context) {
	var req service.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.masterData.CreateItem(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

func (h *MasterDataHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.masterData.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

func (h *MasterDataHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.masterData.DeleteItem(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

// --- Warehouses ---

func (h *MasterDataHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.masterData.ListWarehouses(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, warehouses))
}

// ListRootWarehouses returns the top-level nodes valid as PO targets
func (h *MasterDataHandler) ListRootWarehouses(c *gin.Context) {
	warehouses, err := h.masterData.ListRootWarehouses(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, warehouses))
}

func (h *MasterDataHandler) CreateWarehouse(c *gin.Context) {
	var req service.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	warehouse, err := h.masterData.CreateWarehouse(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, warehouse))
}

func (h *MasterDataHandler) UpdateWarehouse(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req service.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	warehouse, err := h.masterData.UpdateWarehouse(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, warehouse))
}

func (h *MasterDataHandler) DeleteWarehouse(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.masterData.DeleteWarehouse(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
