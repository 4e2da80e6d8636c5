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

type RejectPurchaseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ShiftHandler struct {
	shiftService service.ShiftService
}

func NewShiftHandler(shiftService service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

func (h *ShiftHandler) RegisterRoutes(router *gin.RouterGroup) {
	shifts := router.Group("/api/shifts")
	{
		shifts.POST("/start", middleware.RequirePermission(auth.PermShiftManage), middleware.RequireDrawer(), h.StartShift)
		shifts.POST("/end", middleware.RequirePermission(auth.PermShiftManage), middleware.RequireDrawer(), h.EndShift)
		shifts.GET("/active", middleware.RequirePermission(auth.PermShiftManage), h.GetActiveShift)
		shifts.GET("/:id/summary", middleware.RequirePermission(auth.PermShiftManage), h.GetShiftSummary)
		shifts.GET("", middleware.RequirePermission(auth.PermReports), h.ListShifts)
		shifts.PUT("/:id", middleware.RequirePermission(auth.PermShiftAdmin), h.UpdateShift)
		shifts.DELETE("/:id", middleware.RequirePermission(auth.PermShiftAdmin), h.DeleteShift)
	}

	purchases := router.Group("/api/purchases")
	purchases.Use(middleware.RequirePermission(auth.PermPurchaseReview))
	{
		purchases.GET("", h.ListPurchases)
		purchases.POST("/:id/approve", h.ApprovePurchase)
		purchases.POST("/:id/reject", h.RejectPurchase)
	}
}

// StartShift opens a drawer for the session's staff member
// @Summary      Start shift
// @Tags         shifts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.StartShiftRequest  true  "Starting cash"
// @Success      201      {object}  response.Response{data=model.Shift}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/shifts/start [post]
func (h *ShiftHandler) StartShift(c *gin.Context) {
	var req service.StartShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	shift, err := h.shiftService.StartShift(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, shift))
}

// GetActiveShift returns the session staff's open shift
// @Summary      Get active shift
// @Tags         shifts
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.Shift}
// @Failure      404  {object}  response.Response
// @Router       /api/shifts/active [get]
func (h *ShiftHandler) GetActiveShift(c *gin.Context) {
	shift, err := h.shiftService.GetActiveShift(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shift))
}

// GetShiftSummary returns live totals of a shift
// @Summary      Shift summary
// @Tags         shifts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shift ID"
// @Success      200  {object}  response.Response{data=service.ShiftSummary}
// @Failure      404  {object}  response.Response
// @Router       /api/shifts/{id}/summary [get]
func (h *ShiftHandler) GetShiftSummary(c *gin.Context) {
	summary, err := h.shiftService.GetShiftSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// EndShift closes the drawer and files expenses as pending purchases
// @Summary      End shift
// @Description  Computes expected cash and variance; expenses become pending purchases, failures are returned as warnings
// @Tags         shifts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.EndShiftRequest  true  "Cash count"
// @Success      200      {object}  response.Response{data=service.EndShiftResult}
// @Failure      422      {object}  response.Response
// @Router       /api/shifts/end [post]
func (h *ShiftHandler) EndShift(c *gin.Context) {
	var req service.EndShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	res, err := h.shiftService.EndShift(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ListShifts handles GET /api/shifts
// @Summary      List shifts
// @Tags         shifts
// @Security     BearerAuth
// @Produce      json
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Param        status     query     string  false  "active or completed"
// @Param        staff_id   query     string  false  "Staff ID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Router       /api/shifts [get]
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	p := pagination.Parse(c)
	q := service.ListShiftsQuery{
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Status:   c.Query("status"),
		StaffID:  c.Query("staff_id"),
	}
	shifts, total, err := h.shiftService.ListShifts(c.Request.Context(), q, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, "shifts", shifts, total, p)
}

// UpdateShift corrects a completed shift's cash count or notes
// @Summary      Update shift
// @Tags         shifts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Shift ID"
// @Param        payload  body      service.UpdateShiftRequest  true  "Correction"
// @Success      200      {object}  response.Response{data=model.Shift}
// @Router       /api/shifts/{id} [put]
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	var req service.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	shift, err := h.shiftService.UpdateShift(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shift))
}

// DeleteShift handles DELETE /api/shifts/:id
// @Summary      Delete shift
// @Tags         shifts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shift ID"
// @Success      200  {object}  response.Response
// @Router       /api/shifts/{id} [delete]
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	if err := h.shiftService.DeleteShift(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Shift deleted successfully"))
}

// ListPurchases handles GET /api/purchases
// @Summary      List pending purchases
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "pending, approved or rejected"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/purchases [get]
func (h *ShiftHandler) ListPurchases(c *gin.Context) {
	p := pagination.Parse(c)
	purchases, total, err := h.shiftService.ListPurchases(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, "purchases", purchases, total, p)
}

// ApprovePurchase handles POST /api/purchases/:id/approve
// @Summary      Approve purchase
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response{data=model.PendingPurchase}
// @Failure      409  {object}  response.Response
// @Router       /api/purchases/{id}/approve [post]
func (h *ShiftHandler) ApprovePurchase(c *gin.Context) {
	purchase, err := h.shiftService.ApprovePurchase(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// RejectPurchase handles POST /api/purchases/:id/reject
// @Summary      Reject purchase
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Purchase ID"
// @Param        payload  body      RejectPurchaseRequest  true  "Reason"
// @Success      200      {object}  response.Response{data=model.PendingPurchase}
// @Failure      409      {object}  response.Response
// @Router       /api/purchases/{id}/reject [post]
func (h *ShiftHandler) RejectPurchase(c *gin.Context) {
	var req RejectPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	purchase, err := h.shiftService.RejectPurchase(c.Request.Context(), actorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}
