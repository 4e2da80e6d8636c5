package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bakerypos/internal/auth"
	"bakerypos/internal/middleware"
	"bakerypos/internal/service"
	"bakerypos/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	reports.Use(middleware.RequirePermission(auth.PermReports))
	{
		reports.GET("/sales", h.GetSalesReport)
		reports.GET("/sales/export", h.ExportSalesReport)
		reports.GET("/shifts", h.GetShiftReport)
		reports.GET("/top-products", h.GetTopProducts)
	}
}

func reportQuery(c *gin.Context) service.ReportQuery {
	return service.ReportQuery{
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		GroupBy:  c.Query("group_by"),
	}
}

// GetSalesReport aggregates completed sales
// @Summary      Sales report
// @Description  Groups completed sales by day, month, product or category. Dates default to the current month.
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Param        group_by   query     string  false  "day, month, product or category"
// @Success      200        {object}  response.Response{data=model.SalesReport}
// @Failure      400        {object}  response.Response
// @Router       /api/reports/sales [get]
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	report, err := h.reportService.SalesReport(c.Request.Context(), reportQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// ExportSalesReport downloads the sales report as XLSX
// @Summary      Export sales report
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Param        group_by   query     string  false  "day, month, product or category"
// @Success      200        {file}    file
// @Failure      400        {object}  response.Response
// @Router       /api/reports/sales/export [get]
func (h *ReportHandler) ExportSalesReport(c *gin.Context) {
	q := reportQuery(c)
	// Validate before headers are written.
	if _, err := h.reportService.SalesReport(c.Request.Context(), q); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("sales-report-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := h.reportService.ExportSalesReport(c.Request.Context(), q, c.Writer); err != nil {
		respondError(c, err)
	}
}

// GetShiftReport lists shifts with cash variance and stock shortage
// @Summary      Shift report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Success      200        {object}  response.Response{data=[]model.ShiftReportRow}
// @Router       /api/reports/shifts [get]
func (h *ReportHandler) GetShiftReport(c *gin.Context) {
	rows, err := h.reportService.ShiftReport(c.Request.Context(), reportQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// GetTopProducts ranks products by quantity sold
// @Summary      Top products
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Param        limit      query     int     false  "Number of products (default 10)"
// @Success      200        {object}  response.Response{data=[]model.ProductRanking}
// @Router       /api/reports/top-products [get]
func (h *ReportHandler) GetTopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	rankings, err := h.reportService.TopProducts(c.Request.Context(), reportQuery(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rankings))
}
