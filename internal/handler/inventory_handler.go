package handler

import (
	"net/http"
	"strconv"

	"bakerypos/internal/auth"
	"bakerypos/internal/middleware"
	"bakerypos/internal/model"
	"bakerypos/internal/service"
	"bakerypos/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	stockService       service.StockService
	endorsementService service.EndorsementService
	deductionService   service.DeductionService
}

func NewInventoryHandler(stockService service.StockService, endorsementService service.EndorsementService, deductionService service.DeductionService) *InventoryHandler {
	return &InventoryHandler{
		stockService:       stockService,
		endorsementService: endorsementService,
		deductionService:   deductionService,
	}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api/inventory")
	{
		inventory.GET("/daily", middleware.RequirePermission(auth.PermInventoryRead), h.GetDailyInventory)
		inventory.PUT("/daily", middleware.RequirePermission(auth.PermInventoryWrite), h.SetDailyInventory)
		inventory.POST("/carry-over", middleware.RequirePermission(auth.PermInventoryWrite), h.CarryOver)
		inventory.GET("/can-add", middleware.RequirePermission(auth.PermSell), h.CanAddToCart)
		inventory.GET("/movements", middleware.RequirePermission(auth.PermInventoryRead), h.ListMovements)
	}

	endorse := router.Group("/api/endorsements")
	endorse.Use(middleware.RequirePermission(auth.PermEndorse))
	{
		endorse.GET("/:phase/sheet", middleware.RequireDrawer(), h.PrepareCount)
		endorse.POST("/:phase", middleware.RequireDrawer(), h.SubmitCount)
		endorse.GET("", h.GetEndorsement)
	}

	deductions := router.Group("/api/deductions")
	deductions.Use(middleware.RequirePermission(auth.PermSaleAdmin))
	{
		deductions.GET("/failures", h.ListFailures)
		deductions.POST("/failures/:id/replay", h.ReplayFailure)
	}
}

// GetDailyInventory returns every product's stock for one day
// @Summary      Get daily inventory
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        date  query     string  false  "YYYY-MM-DD (default today)"
// @Success      200   {object}  response.Response{data=[]model.DailyInventory}
// @Router       /api/inventory/daily [get]
func (h *InventoryHandler) GetDailyInventory(c *gin.Context) {
	rows, err := h.stockService.GetDailyInventory(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// SetDailyInventory upserts carryover and new production for a product-day
// @Summary      Set daily inventory
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SetDailyInventoryRequest  true  "Inventory"
// @Success      200      {object}  response.Response{data=model.DailyInventory}
// @Failure      400      {object}  response.Response
// @Router       /api/inventory/daily [put]
func (h *InventoryHandler) SetDailyInventory(c *gin.Context) {
	var req service.SetDailyInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	row, err := h.stockService.SetDailyInventory(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, row))
}

// CarryOver moves one day's sellable stock into the next day's carryover
// @Summary      Carry over inventory
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CarryOverRequest  true  "Days"
// @Success      200      {object}  response.Response{data=[]model.DailyInventory}
// @Router       /api/inventory/carry-over [post]
func (h *InventoryHandler) CarryOver(c *gin.Context) {
	var req service.CarryOverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	rows, err := h.stockService.CarryOver(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// CanAddToCart checks a quantity against today's sellable stock
// @Summary      Check cart quantity
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        product_id  query     string  true   "Product ID"
// @Param        qty         query     int     true   "Requested quantity"
// @Param        in_cart     query     int     false  "Quantity already in the cart"
// @Success      200         {object}  response.Response{data=service.CartCheck}
// @Router       /api/inventory/can-add [get]
func (h *InventoryHandler) CanAddToCart(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		badRequest(c, "Invalid product id")
		return
	}
	qty, err := strconv.Atoi(c.Query("qty"))
	if err != nil || qty <= 0 {
		badRequest(c, "qty must be a positive integer")
		return
	}
	inCart, _ := strconv.Atoi(c.DefaultQuery("in_cart", "0"))

	check, err := h.stockService.CanAddToCart(c.Request.Context(), productID, qty, inCart)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, check))
}

// ListMovements returns the stock movement trail
// @Summary      List stock movements
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        product_id  query     string  false  "Product ID"
// @Param        date        query     string  false  "YYYY-MM-DD"
// @Success      200         {object}  response.Response{data=[]model.StockMovement}
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	movements, err := h.stockService.ListMovements(c.Request.Context(), c.Query("product_id"), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, movements))
}

func validPhase(phase string) bool {
	return phase == model.EndorsementStart || phase == model.EndorsementEnd
}

// PrepareCount builds the count sheet for the active shift
// @Summary      Prepare inventory count
// @Tags         endorsements
// @Security     BearerAuth
// @Produce      json
// @Param        phase  path      string  true  "start or end"
// @Success      200    {object}  response.Response{data=service.CountSheet}
// @Failure      422    {object}  response.Response
// @Router       /api/endorsements/{phase}/sheet [get]
func (h *InventoryHandler) PrepareCount(c *gin.Context) {
	phase := c.Param("phase")
	if !validPhase(phase) {
		badRequest(c, "phase must be start or end")
		return
	}

	var sheet service.CountSheet
	var err error
	if phase == model.EndorsementStart {
		sheet, err = h.endorsementService.PrepareStartCount(c.Request.Context(), actorFrom(c))
	} else {
		sheet, err = h.endorsementService.PrepareEndCount(c.Request.Context(), actorFrom(c))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sheet))
}

// SubmitCount saves the counted quantities for the active shift
// @Summary      Submit inventory count
// @Tags         endorsements
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        phase    path      string                      true  "start or end"
// @Param        payload  body      service.SubmitCountRequest  true  "Counted lines"
// @Success      201      {object}  response.Response{data=model.ShiftInventory}
// @Failure      409      {object}  response.Response
// @Router       /api/endorsements/{phase} [post]
func (h *InventoryHandler) SubmitCount(c *gin.Context) {
	phase := c.Param("phase")
	if !validPhase(phase) {
		badRequest(c, "phase must be start or end")
		return
	}
	var req service.SubmitCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var record *model.ShiftInventory
	var err error
	if phase == model.EndorsementStart {
		record, err = h.endorsementService.SubmitStartCount(c.Request.Context(), actorFrom(c), req)
	} else {
		record, err = h.endorsementService.SubmitEndCount(c.Request.Context(), actorFrom(c), req)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// GetEndorsement returns a saved count
// @Summary      Get endorsement
// @Tags         endorsements
// @Security     BearerAuth
// @Produce      json
// @Param        shift_id  query     string  true  "Shift ID"
// @Param        phase     query     string  true  "start or end"
// @Success      200       {object}  response.Response{data=model.ShiftInventory}
// @Failure      404       {object}  response.Response
// @Router       /api/endorsements [get]
func (h *InventoryHandler) GetEndorsement(c *gin.Context) {
	record, err := h.endorsementService.GetEndorsement(c.Request.Context(), c.Query("shift_id"), c.Query("phase"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// ListFailures returns dead-lettered deduction jobs
// @Summary      List deduction failures
// @Tags         deductions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.DeductionFailure}
// @Router       /api/deductions/failures [get]
func (h *InventoryHandler) ListFailures(c *gin.Context) {
	failures, err := h.deductionService.ListFailures(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, failures))
}

// ReplayFailure re-queues a failed deduction
// @Summary      Replay deduction
// @Tags         deductions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Failure ID"
// @Success      202  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/deductions/failures/{id}/replay [post]
func (h *InventoryHandler) ReplayFailure(c *gin.Context) {
	if err := h.deductionService.Replay(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, "Deduction queued"))
}
