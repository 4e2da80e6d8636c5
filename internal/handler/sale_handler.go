package handler

import (
	"net/http"

	"bakerypos/internal/auth"
	"bakerypos/internal/middleware"
	"bakerypos/internal/service"
	"bakerypos/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	checkoutService service.CheckoutService
}

func NewSaleHandler(checkoutService service.CheckoutService) *SaleHandler {
	return &SaleHandler{checkoutService: checkoutService}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	pos := router.Group("/api/pos")
	pos.Use(middleware.RequirePermission(auth.PermSell))
	{
		pos.POST("/quote", h.Quote)
		pos.POST("/checkout", middleware.RequireDrawer(), h.Checkout)
		pos.POST("/proofs/:kind", middleware.RequireDrawer(), h.UploadProof)
	}

	sales := router.Group("/api/sales")
	{
		sales.GET("", middleware.RequirePermission(auth.PermReports), h.ListSales)
		sales.GET("/:id", middleware.RequirePermission(auth.PermSell), h.GetSale)
		sales.POST("/:id/items/:itemId/remove", middleware.RequirePermission(auth.PermSaleAdmin), h.RemoveSaleItem)
		sales.POST("/:id/delete", middleware.RequirePermission(auth.PermSaleAdmin), h.DeleteSale)
	}
}

// Quote prices a cart and checks stock without recording anything. Register
// edits (discount toggles, quantity changes, removals) are replayed in order.
// @Summary      Quote cart
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.QuoteRequest  true  "Cart lines and edits"
// @Success      200      {object}  response.Response{data=service.CartQuote}
// @Failure      400      {object}  response.Response
// @Router       /api/pos/quote [post]
func (h *SaleHandler) Quote(c *gin.Context) {
	var req service.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	quote, err := h.checkoutService.Quote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

// Checkout records a sale against the session's active shift
// @Summary      Checkout
// @Description  Validates payment and capture requirements, records the sale and queues stock deduction
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CheckoutRequest  true  "Cart and payment"
// @Success      201      {object}  response.Response{data=model.Sale}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/pos/checkout [post]
func (h *SaleHandler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	sale, err := h.checkoutService.Checkout(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// UploadProof stores a GCash or discount ID photo
// @Summary      Upload proof photo
// @Tags         pos
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        kind  path      string  true  "gcash or discount_id"
// @Param        file  formData  file    true  "Image"
// @Success      201   {object}  response.Response{data=object}
// @Failure      400   {object}  response.Response
// @Failure      503   {object}  response.Response
// @Router       /api/pos/proofs/{kind} [post]
func (h *SaleHandler) UploadProof(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		badRequest(c, "Invalid upload: "+err.Error())
		return
	}
	url, err := h.checkoutService.UploadProof(c.Request.Context(), c.Param("kind"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]string{"url": url}))
}

// ListSales handles GET /api/sales
// @Summary      List sales
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        shift_id   query     string  false  "Shift ID"
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Success      200        {object}  response.Response{data=[]model.Sale}
// @Router       /api/sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	q := service.ListSalesQuery{
		ShiftID:  c.Query("shift_id"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}
	sales, err := h.checkoutService.ListSales(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sales))
}

// GetSale handles GET /api/sales/:id
// @Summary      Get sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.checkoutService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// RemoveSaleItem removes one line from a recorded sale and restores its stock
// @Summary      Remove sale line
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Sale ID"
// @Param        itemId   path      string                     true  "Sale item ID"
// @Param        payload  body      service.AdjustSaleRequest  true  "Reason"
// @Success      200      {object}  response.Response{data=model.Sale}
// @Failure      400      {object}  response.Response
// @Router       /api/sales/{id}/items/{itemId}/remove [post]
func (h *SaleHandler) RemoveSaleItem(c *gin.Context) {
	var req service.AdjustSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	sale, err := h.checkoutService.RemoveSaleItem(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// DeleteSale deletes a recorded sale and restores its stock
// @Summary      Delete sale
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Sale ID"
// @Param        payload  body      service.AdjustSaleRequest  true  "Reason"
// @Success      200      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/sales/{id}/delete [post]
func (h *SaleHandler) DeleteSale(c *gin.Context) {
	var req service.AdjustSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.checkoutService.DeleteSale(c.Request.Context(), actorFrom(c), c.Param("id"), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Sale deleted successfully"))
}
