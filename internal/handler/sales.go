package handler

import (
	"fmt"
	"net/http"

	"salescatalog/internal/apierror"
	"salescatalog/internal/dto"
	"salescatalog/internal/repository"
	"salescatalog/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler {
	return &SalesHandler{svc: svc}
}

// ListFiltered godoc
// @Summary      List sales (filtered, paged)
// @Description  Newest first. Both date bounds are inclusive; a date-only endDate covers the whole day.
// @Tags         sales
// @Produce      json
// @Param        productId  query int    false "Product id"
// @Param        startDate  query string false "RFC3339 or YYYY-MM-DD"
// @Param        endDate    query string false "RFC3339 or YYYY-MM-DD"
// @Param        pageNumber query int    false "Page (default 1)"
// @Param        pageSize   query int    false "Page size (default 10)"
// @Success      200 {object} dto.Page[dto.SaleListItem]
// @Failure      400 {object} apierror.APIError
// @Router       /api/sales [get]
func (h *SalesHandler) ListFiltered(c *gin.Context) {
	var q dto.SaleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	start, err := parseDateParam(q.StartDate, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(fmt.Sprintf("Invalid startDate: %q", q.StartDate)))
		return
	}
	end, err := parseDateParam(q.EndDate, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(fmt.Sprintf("Invalid endDate: %q", q.EndDate)))
		return
	}
	if start != nil && end != nil && start.After(*end) {
		c.JSON(http.StatusBadRequest, apierror.New("startDate must not be after endDate"))
		return
	}

	page, err := h.svc.ListFiltered(c.Request.Context(), repository.SaleFilter{
		ProductID: q.ProductID,
		StartDate: start,
		EndDate:   end,
		Page:      q.PageNumber,
		PageSize:  q.PageSize,
	})
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, page)
}

// List godoc
// @Summary      List all sales
// @Tags         sales
// @Produce      json
// @Success      200 {array} dto.SaleListItem
// @Router       /api/sales/all [get]
func (h *SalesHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, items)
}

// Get godoc
// @Summary      Get sale
// @Tags         sales
// @Produce      json
// @Param        id path int true "Sale id"
// @Success      200 {object} dto.SaleListItem
// @Failure      404 {object} apierror.APIError
// @Router       /api/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Sale not found")
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create godoc
// @Summary      Record a sale
// @Description  salePrice defaults to the product's current price and saleDate to now.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateSaleRequest true "Sale"
// @Success      201  {object} dto.SaleListItem
// @Failure      400  {object} apierror.APIError "invalid JSON or unknown productId"
// @Failure      422  {object} apierror.ValidationError
// @Router       /api/sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	item, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.Header("Location", fmt.Sprintf("/api/sales/%d", item.ID))
	c.JSON(http.StatusCreated, item)
}

// Update godoc
// @Summary      Replace a sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id   path int                   true "Sale id"
// @Param        body body dto.UpdateSaleRequest true "Sale"
// @Success      200  {object} dto.SaleListItem
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /api/sales/{id} [put]
func (h *SalesHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	item, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err, "Sale not found")
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete godoc
// @Summary      Delete a sale
// @Tags         sales
// @Param        id path int true "Sale id"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /api/sales/{id} [delete]
func (h *SalesHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "Sale not found")
		return
	}
	c.Status(http.StatusNoContent)
}
