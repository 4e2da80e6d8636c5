package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"bakerypos/internal/auth"
	"bakerypos/internal/middleware"
	"bakerypos/internal/service"
	"bakerypos/pkg/pagination"
	"bakerypos/pkg/response"

	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	importService service.ImportService
}

func NewImportHandler(importService service.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	imports := router.Group("/api/imports")
	imports.Use(middleware.RequirePermission(auth.PermImport))
	{
		imports.POST("/preview", h.Preview)
		imports.POST("", h.Commit)
		imports.GET("", h.ListImports)
		imports.GET("/:id", h.GetImport)
		imports.GET("/mappings", h.ListMappings)
		imports.DELETE("/mappings/:id", h.DeleteMapping)
	}
}

// exports reads the item and summary CSV uploads.
func exports(c *gin.Context) (*bytes.Reader, *bytes.Reader, bool) {
	items, err := readUpload(c, "items")
	if err != nil {
		badRequest(c, "items CSV is required: "+err.Error())
		return nil, nil, false
	}
	summary, err := readUpload(c, "summary")
	if err != nil {
		badRequest(c, "summary CSV is required: "+err.Error())
		return nil, nil, false
	}
	return bytes.NewReader(items), bytes.NewReader(summary), true
}

// Preview resolves item names and splits new from already imported days
// @Summary      Preview sales import
// @Tags         imports
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        items    formData  file  true  "Item sales CSV"
// @Param        summary  formData  file  true  "Daily summary CSV"
// @Success      200      {object}  response.Response{data=service.ImportPreview}
// @Failure      400      {object}  response.Response
// @Router       /api/imports/preview [post]
func (h *ImportHandler) Preview(c *gin.Context) {
	items, summary, ok := exports(c)
	if !ok {
		return
	}
	preview, err := h.importService.Preview(c.Request.Context(), items, summary)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, preview))
}

// Commit stores the new days of an import batch
// @Summary      Commit sales import
// @Description  mappings is a JSON array of service.ManualMapping resolving the manual queue
// @Tags         imports
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        items     formData  file    true   "Item sales CSV"
// @Param        summary   formData  file    true   "Daily summary CSV"
// @Param        mappings  formData  string  false  "Manual mappings JSON"
// @Success      201       {object}  response.Response{data=model.SalesImport}
// @Failure      409       {object}  response.Response
// @Failure      422       {object}  response.Response
// @Router       /api/imports [post]
func (h *ImportHandler) Commit(c *gin.Context) {
	items, summary, ok := exports(c)
	if !ok {
		return
	}
	var manual []service.ManualMapping
	if raw := c.PostForm("mappings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &manual); err != nil {
			badRequest(c, "Invalid mappings: "+err.Error())
			return
		}
	}

	batch, err := h.importService.Commit(c.Request.Context(), actorFrom(c), items, summary, manual)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, batch))
}

// ListImports handles GET /api/imports
// @Summary      List import batches
// @Tags         imports
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/imports [get]
func (h *ImportHandler) ListImports(c *gin.Context) {
	p := pagination.Parse(c)
	batches, total, err := h.importService.ListImports(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, "imports", batches, total, p)
}

// GetImport handles GET /api/imports/:id
// @Summary      Get import batch
// @Tags         imports
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Import ID"
// @Success      200  {object}  response.Response{data=model.SalesImport}
// @Failure      404  {object}  response.Response
// @Router       /api/imports/{id} [get]
func (h *ImportHandler) GetImport(c *gin.Context) {
	batch, err := h.importService.GetImport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, batch))
}

// ListMappings handles GET /api/imports/mappings
// @Summary      List product mappings
// @Tags         imports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ProductMapping}
// @Router       /api/imports/mappings [get]
func (h *ImportHandler) ListMappings(c *gin.Context) {
	mappings, err := h.importService.ListMappings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, mappings))
}

// DeleteMapping handles DELETE /api/imports/mappings/:id
// @Summary      Delete product mapping
// @Tags         imports
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Mapping ID"
// @Success      200  {object}  response.Response
// @Router       /api/imports/mappings/{id} [delete]
func (h *ImportHandler) DeleteMapping(c *gin.Context) {
	if err := h.importService.DeleteMapping(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Mapping deleted"))
}
