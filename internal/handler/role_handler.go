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

type RoleHandler struct {
	roleService service.RoleService
}

func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/api/roles")
	roles.Use(middleware.Identify())
	{
		roles.GET("", middleware.RequireCapability(model.EntityUser, model.CapRead), h.ListRoles)
		roles.GET("/update-capable", middleware.RequireCapability(model.EntityUser, model.CapRead), h.UpdateCapableRoles)
		roles.GET("/:id", middleware.RequireCapability(model.EntityUser, model.CapRead), h.GetRole)
		roles.POST("", middleware.RequireCapability(model.EntityUser, model.CapCreate), h.CreateRole)
		roles.PUT("/:id", middleware.RequireCapability(model.EntityUser, model.CapUpdate), h.UpdateRole)
		roles.DELETE("/:id", middleware.RequireCapability(model.EntityUser, model.CapDelete), h.DeleteRole)
		roles.PUT("/:id/permissions", middleware.RequireCapability(model.EntityUser, model.CapUpdate), h.SetPermissions)
	}

	me := router.Group("/api/me")
	me.Use(middleware.Identify())
	{
		me.GET("/capabilities", h.MyCapabilities)
	}
}

// ListRoles returns every functional role
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// UpdateCapableRoles lists the ids of roles granting update on an entity.
// The transition editor uses it to populate its allowed-roles selector.
// @Summary      List roles with update permission
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        entity  query     string  false  "Entity name"  default(Purchase Order)
// @Success      200     {object}  response.Response{data=[]string}
// @Failure      400     {object}  response.Response
// @Router       /roles/update-capable [get]
func (h *RoleHandler) UpdateCapableRoles(c *gin.Context) {
	entity := c.DefaultQuery("entity", string(model.EntityPurchaseOrder))
	if !model.ValidEntityKind(entity) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unknown entity "+entity))
		return
	}

	ids, err := h.roleService.RolesGranting(c.Request.Context(), model.EntityKind(entity), model.CapUpdate)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ids))
}

// GetRole returns a role with its permission matrix rows
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role id"))
		return
	}

	detail, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// CreateRole creates a functional role
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Role"
// @Success      201      {object}  response.Response{data=model.FunctionalRole}
// @Failure      400      {object}  response.Response
// @Router       /roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole renames a role or changes its description
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role id"))
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole removes a role that is not assigned or gating any transition
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role id"))
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}

// SetPermissions replaces the role's permission matrix
// @Summary      Set role permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Role ID"
// @Param        payload  body      []service.PermissionRuleInput  true  "Permission matrix rows"
// @Success      200      {object}  response.Response{data=service.RoleDetailResponse}
// @Failure      400      {object}  response.Response
// @Router       /roles/{id}/permissions [put]
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role id"))
		return
	}

	var rules []service.PermissionRuleInput
	if err := c.ShouldBindJSON(&rules); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	detail, err := h.roleService.SetPermissions(c.Request.Context(), id, rules)
	if err != nil {
		writeError(c, err)
		return
	}

	// Permission decisions may be cached; invalidate after a matrix change.
	middleware.ClearCapabilityCache()

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// MyCapabilities returns the caller's effective capability per entity
func (h *RoleHandler) MyCapabilities(c *gin.Context) {
	actor := middleware.GetActor(c)
	capabilities, err := h.roleService.EffectiveCapabilities(c.Request.Context(), actor.RoleIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, capabilities))
}
