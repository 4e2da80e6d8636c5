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

// CatalogHandler serves products, discounts and recipes.
type CatalogHandler struct {
	productService  service.ProductService
	discountService service.DiscountService
	recipeService   service.RecipeService
}

func NewCatalogHandler(productService service.ProductService, discountService service.DiscountService, recipeService service.RecipeService) *CatalogHandler {
	return &CatalogHandler{productService: productService, discountService: discountService, recipeService: recipeService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.GET("/products", middleware.RequirePermission(auth.PermInventoryRead), h.GetProducts)
		api.GET("/products/:id", middleware.RequirePermission(auth.PermInventoryRead), h.GetProduct)
		api.POST("/products", middleware.RequirePermission(auth.PermInventoryWrite), h.CreateProduct)
		api.PUT("/products/:id", middleware.RequirePermission(auth.PermInventoryWrite), h.UpdateProduct)
		api.DELETE("/products/:id", middleware.RequirePermission(auth.PermInventoryWrite), h.DeleteProduct)
		api.GET("/products/:id/recipe", middleware.RequirePermission(auth.PermInventoryRead), h.GetRecipe)
		api.PUT("/products/:id/recipe", middleware.RequirePermission(auth.PermInventoryWrite), h.SetRecipe)

		api.GET("/discounts", middleware.RequirePermission(auth.PermSell), h.ListDiscounts)
		api.POST("/discounts", middleware.RequirePermission(auth.PermDiscountWrite), h.CreateDiscount)
		api.PUT("/discounts/:id", middleware.RequirePermission(auth.PermDiscountWrite), h.UpdateDiscount)

		api.GET("/ingredients", middleware.RequirePermission(auth.PermInventoryRead), h.ListIngredients)
		api.POST("/ingredients", middleware.RequirePermission(auth.PermInventoryWrite), h.CreateIngredient)
		api.GET("/packaging", middleware.RequirePermission(auth.PermInventoryRead), h.ListPackaging)
		api.POST("/packaging", middleware.RequirePermission(auth.PermInventoryWrite), h.CreatePackaging)
		api.GET("/preparations", middleware.RequirePermission(auth.PermInventoryRead), h.ListPreparations)
		api.POST("/preparations", middleware.RequirePermission(auth.PermInventoryWrite), h.CreatePreparation)
	}
}

// GetProducts handles retrieving the paginated catalog
// @Summary      Get products
// @Description  Retrieves a paginated list of products with their variants
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by product name"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/products [get]
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	p := pagination.Parse(c)
	products, total, err := h.productService.ListProducts(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, "products", products, total, p)
}

// GetProduct handles GET /api/products/:id
// @Summary      Get product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct creates a new catalog product
// @Summary      Create product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	product, err := h.productService.CreateProduct(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct updates an existing product and its variants
// @Summary      Update product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Product ID"
// @Param        payload  body      service.ProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	product, err := h.productService.UpdateProduct(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct removes a product softly
// @Summary      Delete product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.DeleteProduct(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}

// GetRecipe handles GET /api/products/:id/recipe
// @Summary      Get recipe
// @Tags         recipes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=[]model.RecipeComponent}
// @Router       /api/products/{id}/recipe [get]
func (h *CatalogHandler) GetRecipe(c *gin.Context) {
	components, err := h.recipeService.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, components))
}

// SetRecipe replaces a product's recipe components
// @Summary      Set recipe
// @Tags         recipes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Product ID"
// @Param        payload  body      service.SetRecipeRequest  true  "Components"
// @Success      200      {object}  response.Response{data=[]model.RecipeComponent}
// @Failure      400      {object}  response.Response
// @Router       /api/products/{id}/recipe [put]
func (h *CatalogHandler) SetRecipe(c *gin.Context) {
	var req service.SetRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	components, err := h.recipeService.SetRecipe(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, components))
}

// ListDiscounts handles GET /api/discounts
// @Summary      List discounts
// @Tags         discounts
// @Security     BearerAuth
// @Produce      json
// @Param        active  query     bool  false  "Only active discounts"
// @Success      200     {object}  response.Response{data=[]model.Discount}
// @Router       /api/discounts [get]
func (h *CatalogHandler) ListDiscounts(c *gin.Context) {
	discounts, err := h.discountService.ListDiscounts(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, discounts))
}

// CreateDiscount handles POST /api/discounts
// @Summary      Create discount
// @Tags         discounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.DiscountRequest  true  "Discount"
// @Success      201      {object}  response.Response{data=model.Discount}
// @Failure      400      {object}  response.Response
// @Router       /api/discounts [post]
func (h *CatalogHandler) CreateDiscount(c *gin.Context) {
	var req service.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	discount, err := h.discountService.CreateDiscount(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, discount))
}

// UpdateDiscount handles PUT /api/discounts/:id
// @Summary      Update discount
// @Tags         discounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Discount ID"
// @Param        payload  body      service.DiscountRequest  true  "Discount"
// @Success      200      {object}  response.Response{data=model.Discount}
// @Failure      404      {object}  response.Response
// @Router       /api/discounts/{id} [put]
func (h *CatalogHandler) UpdateDiscount(c *gin.Context) {
	var req service.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	discount, err := h.discountService.UpdateDiscount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, discount))
}

// ListIngredients handles GET /api/ingredients
// @Summary      List ingredients
// @Tags         recipes
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Ingredient}
// @Router       /api/ingredients [get]
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	items, err := h.recipeService.ListIngredients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// CreateIngredient handles POST /api/ingredients
// @Summary      Create ingredient
// @Tags         recipes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateIngredientRequest  true  "Ingredient"
// @Success      201      {object}  response.Response{data=model.Ingredient}
// @Router       /api/ingredients [post]
func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	var req service.CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	item, err := h.recipeService.CreateIngredient(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// ListPackaging handles GET /api/packaging
// @Summary      List packaging materials
// @Tags         recipes
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.PackagingMaterial}
// @Router       /api/packaging [get]
func (h *CatalogHandler) ListPackaging(c *gin.Context) {
	items, err := h.recipeService.ListPackaging(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// CreatePackaging handles POST /api/packaging
// @Summary      Create packaging material
// @Tags         recipes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePackagingRequest  true  "Packaging"
// @Success      201      {object}  response.Response{data=model.PackagingMaterial}
// @Router       /api/packaging [post]
func (h *CatalogHandler) CreatePackaging(c *gin.Context) {
	var req service.CreatePackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	item, err := h.recipeService.CreatePackaging(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// ListPreparations handles GET /api/preparations
// @Summary      List preparations
// @Tags         recipes
// @Security     BearerAuth
// @Produce      json
// @Param        kind  query     string  false  "dough, filling or topping"
// @Success      200   {object}  response.Response{data=[]model.Preparation}
// @Router       /api/preparations [get]
func (h *CatalogHandler) ListPreparations(c *gin.Context) {
	items, err := h.recipeService.ListPreparations(c.Request.Context(), c.Query("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// CreatePreparation handles POST /api/preparations
// @Summary      Create preparation
// @Tags         recipes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePreparationRequest  true  "Preparation"
// @Success      201      {object}  response.Response{data=model.Preparation}
// @Failure      400      {object}  response.Response
// @Router       /api/preparations [post]
func (h *CatalogHandler) CreatePreparation(c *gin.Context) {
	var req service.CreatePreparationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	item, err := h.recipeService.CreatePreparation(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}
