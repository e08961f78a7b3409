package handler

import (
	"net/http"

	"pos-backend/internal/middleware"
	"pos-backend/internal/service"
	"pos-backend/pkg/pagination"
	"pos-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	saleService service.SaleService
	authMW      *middleware.Auth
}

func NewProductHandler(saleService service.SaleService, authMW *middleware.Auth) *ProductHandler {
	return &ProductHandler{saleService: saleService, authMW: authMW}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products")
	{
		products.GET("", h.authMW.RequirePermission("inventory_read"), h.ListProducts)
		products.GET("/:id", h.authMW.RequirePermission("inventory_read"), h.GetProduct)
		products.POST("", h.authMW.RequirePermission("inventory_write"), h.CreateProduct)
		products.PUT("/:id", h.authMW.RequirePermission("inventory_update"), h.UpdateProduct)
		products.DELETE("/:id", h.authMW.RequirePermission("inventory_delete"), h.DeleteProduct)
	}
}

// ListProducts returns the catalog page by page
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Param        search  query     string  false  "Name filter"
// @Success      200     {object}  response.Response{data=response.Paginated}
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)
	products, total, err := h.saleService.ListProducts(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: products, Total: total, Page: p.Page, Limit: p.Limit,
	}))
}

// GetProduct returns one catalog entry
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product id"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	product, err := h.saleService.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct adds a catalog entry
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProductRequest  true  "New product"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Router       /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.saleService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct changes name or price
// @Summary      Update product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                           true  "Product id"
// @Param        payload  body      service.UpdateProductRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Router       /api/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.saleService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct removes a catalog entry
// @Summary      Delete product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product id"
// @Success      200  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	if err := h.saleService.DeleteProduct(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Product deleted successfully"}))
}
