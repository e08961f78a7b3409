package handler

import (
	"net/http"

	"pos-backend/internal/middleware"
	"pos-backend/internal/service"
	"pos-backend/pkg/pagination"
	"pos-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
	authMW      *middleware.Auth
}

func NewSaleHandler(saleService service.SaleService, authMW *middleware.Auth) *SaleHandler {
	return &SaleHandler{saleService: saleService, authMW: authMW}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/api/sales")
	{
		sales.POST("", h.authMW.RequirePermission("sales_write"), h.RecordSale)
		sales.GET("", h.authMW.RequirePermission("sales_read"), h.ListTransactions)
	}

	router.GET("/api/reports/total", h.authMW.RequirePermission("reports_read"), h.RunningTotal)
}

// RecordSale appends one sale to the ledger
// @Summary      Record sale
// @Description  Appends a transaction with total = price × quantity
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RecordSaleRequest  true  "Sale"
// @Success      201      {object}  response.Response{data=service.TransactionResponse}
// @Failure      404      {object}  response.Response  "Unknown product"
// @Router       /api/sales [post]
func (h *SaleHandler) RecordSale(c *gin.Context) {
	var req service.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.saleService.RecordSale(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// ListTransactions returns recorded sales, newest first
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=response.Paginated}
// @Router       /api/sales [get]
func (h *SaleHandler) ListTransactions(c *gin.Context) {
	p := pagination.Parse(c)
	txs, total, err := h.saleService.ListTransactions(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: txs, Total: total, Page: p.Page, Limit: p.Limit,
	}))
}

// RunningTotal returns the sum of every recorded sale
// @Summary      Sales total
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /api/reports/total [get]
func (h *SaleHandler) RunningTotal(c *gin.Context) {
	total, err := h.saleService.RunningTotal(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), response.Error(statusFor(err), err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"total": total.StringFixed(2)}))
}
