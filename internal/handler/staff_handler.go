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

const deviceHeader = "X-Device-ID"

type StaffHandler struct {
	staffService  service.StaffService
	secureCookies bool
}

// NewStaffHandler sets up the routing dependencies for session and staff endpoints
func NewStaffHandler(staffService service.StaffService, secureCookies bool) *StaffHandler {
	return &StaffHandler{staffService: staffService, secureCookies: secureCookies}
}

// RegisterRoutes binds the endpoints. loginLimit guards the PIN login against brute force.
func (h *StaffHandler) RegisterRoutes(router *gin.RouterGroup, loginLimit gin.HandlerFunc) {
	// Public routes
	router.POST("/login", loginLimit, h.Login)
	router.POST("/logout", h.Logout)

	router.GET("/me", middleware.Authenticated(), h.GetMe)
	router.POST("/view-only", middleware.Authenticated(), h.EnterViewOnly)

	staff := router.Group("/api/staff")
	staff.Use(middleware.RequirePermission(auth.PermStaffAdmin))
	{
		staff.GET("", h.ListStaff)
		staff.POST("", h.CreateStaff)
		staff.PUT("/:id", h.UpdateStaff)
		staff.DELETE("/:id", h.DeleteStaff)
	}

	devices := router.Group("/api/devices")
	devices.Use(middleware.RequirePermission(auth.PermStaffAdmin))
	{
		devices.GET("", h.ListDevices)
		devices.POST("", h.RegisterDevice)
		devices.DELETE("/:id", h.RevokeDevice)
	}
}

// Login handles POST /login with staff id and PIN
// @Summary      PIN login
// @Description  Authenticates a staff member by PIN and returns a session token with the resolved session state
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Device-ID  header    string                 false  "Registered device id"
// @Param        payload      body      service.LoginRequest   true   "Login Credentials"
// @Success      200          {object}  response.Response{data=service.LoginResponse}
// @Failure      400          {object}  response.Response
// @Failure      401          {object}  response.Response
// @Failure      429          {object}  response.Response
// @Router       /login [post]
func (h *StaffHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload")
		return
	}

	res, err := h.staffService.Login(c.Request.Context(), req, c.GetHeader(deviceHeader))
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetTokenCookie(c, res.Token, h.secureCookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Logout handles POST /logout to clear the session cookie
func (h *StaffHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c, h.secureCookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// EnterViewOnly issues a session without a drawer
// @Summary      Enter view-only mode
// @Description  Manager, owner and admin sessions may browse without starting a shift
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.LoginResponse}
// @Failure      403  {object}  response.Response
// @Router       /view-only [post]
func (h *StaffHandler) EnterViewOnly(c *gin.Context) {
	res, err := h.staffService.EnterViewOnly(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetTokenCookie(c, res.Token, h.secureCookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// GetMe returns the session claims and the permissions of the role
// @Summary      Get current session
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      401  {object}  response.Response
// @Router       /me [get]
func (h *StaffHandler) GetMe(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	perms := auth.Permissions(claims.Role)
	if perms == nil {
		perms = []string{}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"id":          claims.StaffID(),
		"name":        claims.Name,
		"role":        claims.Role,
		"mode":        claims.Mode,
		"shift_id":    claims.ShiftID,
		"permissions": perms,
	}))
}

// ListStaff handles GET /api/staff
// @Summary      List staff
// @Tags         staff
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/staff [get]
func (h *StaffHandler) ListStaff(c *gin.Context) {
	p := pagination.Parse(c)
	staff, total, err := h.staffService.ListStaff(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, "staff", staff, total, p)
}

// CreateStaff handles POST /api/staff
// @Summary      Create staff
// @Tags         staff
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateStaffRequest  true  "Staff"
// @Success      201      {object}  response.Response{data=service.StaffResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/staff [post]
func (h *StaffHandler) CreateStaff(c *gin.Context) {
	var req service.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	staff, err := h.staffService.CreateStaff(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, staff))
}

// UpdateStaff handles PUT /api/staff/:id
// @Summary      Update staff
// @Tags         staff
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Staff ID"
// @Param        payload  body      service.UpdateStaffRequest  true  "Staff"
// @Success      200      {object}  response.Response{data=service.StaffResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/staff/{id} [put]
func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	var req service.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	staff, err := h.staffService.UpdateStaff(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, staff))
}

// DeleteStaff handles DELETE /api/staff/:id
// @Summary      Delete staff
// @Tags         staff
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Staff ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/staff/{id} [delete]
func (h *StaffHandler) DeleteStaff(c *gin.Context) {
	if err := h.staffService.DeleteStaff(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Staff deleted successfully"))
}

// ListDevices handles GET /api/devices
// @Summary      List authorized devices
// @Tags         devices
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.AuthorizedDevice}
// @Router       /api/devices [get]
func (h *StaffHandler) ListDevices(c *gin.Context) {
	devices, err := h.staffService.ListDevices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, devices))
}

// RegisterDevice handles POST /api/devices
// @Summary      Authorize a device
// @Tags         devices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterDeviceRequest  true  "Device"
// @Success      201      {object}  response.Response{data=model.AuthorizedDevice}
// @Failure      400      {object}  response.Response
// @Router       /api/devices [post]
func (h *StaffHandler) RegisterDevice(c *gin.Context) {
	var req service.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	device, err := h.staffService.RegisterDevice(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, device))
}

// RevokeDevice handles DELETE /api/devices/:id
// @Summary      Revoke a device
// @Tags         devices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Device record ID"
// @Success      200  {object}  response.Response
// @Router       /api/devices/{id} [delete]
func (h *StaffHandler) RevokeDevice(c *gin.Context) {
	if err := h.staffService.RevokeDevice(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Device revoked"))
}
