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

type ReceivableHandler struct {
	receivableService service.ReceivableService
}

func NewReceivableHandler(receivableService service.ReceivableService) *ReceivableHandler {
	return &ReceivableHandler{receivableService: receivableService}
}

func (h *ReceivableHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/receivables")
	group.Use(middleware.RequirePermission(auth.PermReceivables))
	{
		group.GET("", h.ListReceivables)
		group.GET("/:id", h.GetReceivable)
		group.POST("/:id/payments", h.RecordPayment)
		group.POST("/ensure/:saleId", h.EnsureReceivable)
		group.POST("/sync", middleware.RequirePermission(auth.PermSaleAdmin), h.SyncReceivables)
	}

	customers := router.Group("/api/customers")
	customers.Use(middleware.RequirePermission(auth.PermReceivables))
	{
		customers.GET("", h.ListCustomers)
		customers.POST("", h.CreateCustomer)
	}
}

// ListReceivables handles GET /api/receivables
// @Summary      List receivables
// @Tags         receivables
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "unpaid, partial or paid"
// @Param        customer_id  query     string  false  "Charge customer ID"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Router       /api/receivables [get]
func (h *ReceivableHandler) ListReceivables(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.receivableService.ListReceivables(c.Request.Context(), c.Query("status"), c.Query("customer_id"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, "receivables", items, total, p)
}

// GetReceivable handles GET /api/receivables/:id
// @Summary      Get receivable
// @Tags         receivables
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Receivable ID"
// @Success      200  {object}  response.Response{data=model.Receivable}
// @Failure      404  {object}  response.Response
// @Router       /api/receivables/{id} [get]
func (h *ReceivableHandler) GetReceivable(c *gin.Context) {
	rec, err := h.receivableService.GetReceivable(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// RecordPayment applies a payment to a receivable
// @Summary      Record receivable payment
// @Tags         receivables
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Receivable ID"
// @Param        payload  body      service.RecordPaymentRequest  true  "Payment"
// @Success      200      {object}  response.Response{data=model.Receivable}
// @Failure      400      {object}  response.Response
// @Router       /api/receivables/{id}/payments [post]
func (h *ReceivableHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	rec, err := h.receivableService.RecordPayment(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// EnsureReceivable derives the receivable of a charge sale when it is missing
// @Summary      Ensure receivable
// @Tags         receivables
// @Security     BearerAuth
// @Produce      json
// @Param        saleId  path      string  true  "Sale ID"
// @Success      200     {object}  response.Response{data=model.Receivable}
// @Router       /api/receivables/ensure/{saleId} [post]
func (h *ReceivableHandler) EnsureReceivable(c *gin.Context) {
	rec, err := h.receivableService.EnsureReceivable(c.Request.Context(), c.Param("saleId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// SyncReceivables backfills receivables for every charge sale
// @Summary      Sync receivables
// @Tags         receivables
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.SyncResult}
// @Router       /api/receivables/sync [post]
func (h *ReceivableHandler) SyncReceivables(c *gin.Context) {
	res, err := h.receivableService.SyncReceivables(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ListCustomers handles GET /api/customers
// @Summary      List charge customers
// @Tags         receivables
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ChargeCustomer}
// @Router       /api/customers [get]
func (h *ReceivableHandler) ListCustomers(c *gin.Context) {
	customers, err := h.receivableService.ListCustomers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customers))
}

// CreateCustomer handles POST /api/customers
// @Summary      Create charge customer
// @Tags         receivables
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateChargeCustomerRequest  true  "Customer"
// @Success      201      {object}  response.Response{data=model.ChargeCustomer}
// @Router       /api/customers [post]
func (h *ReceivableHandler) CreateCustomer(c *gin.Context) {
	var req service.CreateChargeCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	customer, err := h.receivableService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}
