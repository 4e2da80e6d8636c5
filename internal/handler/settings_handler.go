package handler

import (
	"net/http"

	"bakerypos/internal/auth"
	"bakerypos/internal/middleware"
	"bakerypos/internal/service"
	"bakerypos/pkg/pagination"
	"bakerypos/pkg/response"

	"github.com/gin-gonic/gin"
)

// SettingsHandler serves app settings and the audit trail.
type SettingsHandler struct {
	settingsService service.SettingsService
	auditService    service.AuditService
}

func NewSettingsHandler(settingsService service.SettingsService, auditService service.AuditService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, auditService: auditService}
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	settings := router.Group("/api/settings")
	{
		settings.GET("", middleware.Authenticated(), h.ListSettings)
		settings.PUT("/:key", middleware.RequirePermission(auth.PermSettings), h.UpdateSetting)
	}

	router.GET("/api/audit-logs", middleware.RequirePermission(auth.PermAuditRead), h.GetAuditLogs)
}

// ListSettings handles GET /api/settings
// @Summary      List settings
// @Tags         settings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.SettingResponse}
// @Router       /api/settings [get]
func (h *SettingsHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingsService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// UpdateSetting handles PUT /api/settings/:key
// @Summary      Update setting
// @Tags         settings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        key      path      string                        true  "Setting key"
// @Param        payload  body      service.UpdateSettingRequest  true  "Value"
// @Success      200      {object}  response.Response{data=service.SettingResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/settings/{key} [put]
func (h *SettingsHandler) UpdateSetting(c *gin.Context) {
	var req service.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	setting, err := h.settingsService.Set(c.Request.Context(), actorFrom(c), c.Param("key"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, setting))
}

// GetAuditLogs retrieves paginated audit records with the acting staff resolved
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action  query     string  false  "Filter by action"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/audit-logs [get]
func (h *SettingsHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), c.Query("action"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, "logs", logs, total, p)
}
