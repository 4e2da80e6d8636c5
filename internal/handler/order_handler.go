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

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes binds the customer-facing routes, which carry no staff session,
// and the staff routes. publicLimit throttles the anonymous ones.
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup, publicLimit gin.HandlerFunc) {
	public := router.Group("/public/orders")
	public.Use(publicLimit)
	{
		public.POST("", h.PlaceOrder)
		public.GET("", h.ListMyOrders)
		public.POST("/proof", h.UploadProof)
		public.POST("/:id/payment", h.AttachPayment)
	}

	orders := router.Group("/api/orders")
	orders.Use(middleware.RequirePermission(auth.PermOrders))
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/status", h.UpdateStatus)
	}
}

// PlaceOrder reserves stock for a pickup order
// @Summary      Place pickup order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PlaceOrderRequest  true  "Order"
// @Success      201      {object}  response.Response{data=model.CustomerOrder}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /public/orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	order, err := h.orderService.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListMyOrders lists the orders placed by one browser session
// @Summary      List session orders
// @Tags         orders
// @Produce      json
// @Param        session_id  query     string  true  "Customer session ID"
// @Success      200         {object}  response.Response{data=object}
// @Router       /public/orders [get]
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		badRequest(c, "session_id is required")
		return
	}
	p := pagination.Parse(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), "", sessionID, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, "orders", orders, total, p)
}

// UploadProof stores a customer's payment screenshot
// @Summary      Upload order payment proof
// @Tags         orders
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Image"
// @Success      201   {object}  response.Response{data=object}
// @Failure      400   {object}  response.Response
// @Router       /public/orders/proof [post]
func (h *OrderHandler) UploadProof(c *gin.Context) {
	data, err := readUpload(c, "file")
	if err != nil {
		badRequest(c, "Invalid upload: "+err.Error())
		return
	}
	url, err := h.orderService.UploadProof(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]string{"url": url}))
}

// AttachPayment records the payment reference and proof on an order
// @Summary      Attach order payment
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Order ID"
// @Param        payload  body      service.OrderPaymentRequest  true  "Payment"
// @Success      200      {object}  response.Response{data=model.CustomerOrder}
// @Failure      403      {object}  response.Response
// @Router       /public/orders/{id}/payment [post]
func (h *OrderHandler) AttachPayment(c *gin.Context) {
	var req service.OrderPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	order, err := h.orderService.AttachPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListOrders handles GET /api/orders
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Order status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), c.Query("status"), "", p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, "orders", orders, total, p)
}

// GetOrder handles GET /api/orders/:id
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.CustomerOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateStatus moves an order to its next status
// @Summary      Update order status
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.OrderStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=model.CustomerOrder}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req service.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
