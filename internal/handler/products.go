package handler

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"salescatalog/internal/apierror"
	"salescatalog/internal/dto"
	"salescatalog/internal/infra"
	"salescatalog/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxImageBytes = 5 << 20

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// ListPaged godoc
// @Summary      List products (paged)
// @Tags         products
// @Produce      json
// @Param        pageNumber query int false "Page (default 1)"
// @Param        pageSize   query int false "Page size (default 10)"
// @Success      200 {object} dto.Page[dto.ProductListItem]
// @Router       /api/products [get]
func (h *ProductsHandler) ListPaged(c *gin.Context) {
	var q dto.ProductPageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	page, err := h.svc.ListPaged(c.Request.Context(), q.PageNumber, q.PageSize)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProductsHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetWithSales returns the product, its aggregates and its sales, newest first.
func (h *ProductsHandler) GetWithSales(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	detail, err := h.svc.GetWithSales(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Report godoc
// @Summary      Product sales report
// @Tags         products
// @Produce      application/pdf
// @Param        id path int true "Product id"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /api/products/{id}/report.pdf [get]
func (h *ProductsHandler) Report(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	detail, err := h.svc.GetWithSales(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Product not found")
		return
	}

	var buf bytes.Buffer
	if err := infra.RenderSalesReport(&buf, detail, time.Now()); err != nil {
		writeError(c, err, "")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="product-%d-sales.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Create godoc
// @Summary      Create product
// @Description  Accepts JSON, or multipart/form-data with an optional image file stored as a data URI.
// @Tags         products
// @Accept       json,mpfd
// @Produce      json
// @Param        body body dto.ProductRequest true "Product"
// @Success      201  {object} dto.ProductListItem
// @Failure      400  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /api/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	req, ok := bindProduct(c)
	if !ok {
		return
	}
	item, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.Header("Location", fmt.Sprintf("/api/products/%d", item.ID))
	c.JSON(http.StatusCreated, item)
}

func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := bindProduct(c)
	if !ok {
		return
	}
	item, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete godoc
// @Summary      Delete product
// @Tags         products
// @Param        id path int true "Product id"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError "product still has sales"
// @Router       /api/products/{id} [delete]
func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "Product not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// bindProduct reads a ProductRequest from JSON or from form fields.
func bindProduct(c *gin.Context) (dto.ProductRequest, bool) {
	var req dto.ProductRequest
	switch c.ContentType() {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		if err := bindProductForm(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return req, false
		}
		return req, validateStruct(c, &req)
	default:
		return req, bindAndValidate(c, &req)
	}
}

func bindProductForm(c *gin.Context, req *dto.ProductRequest) error {
	if raw := strings.TrimSpace(c.PostForm("salePrice")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("Invalid salePrice: %q", raw)
		}
		req.SalePrice = price
	}
	req.Description = optionalForm(c, "description")
	req.Category = optionalForm(c, "category")
	req.Image = optionalForm(c, "image")

	fh, err := c.FormFile("image")
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return nil
	}
	if err != nil {
		return fmt.Errorf("Invalid image upload: %w", err)
	}
	uri, err := imageDataURI(fh)
	if err != nil {
		return err
	}
	req.Image = &uri
	return nil
}

func optionalForm(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok || v == "" {
		return nil
	}
	return &v
}

// imageDataURI encodes an uploaded file as data:<mime>;base64,<payload>.
func imageDataURI(fh *multipart.FileHeader) (string, error) {
	if fh.Size > maxImageBytes {
		return "", fmt.Errorf("Image exceeds %d bytes", maxImageBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("Invalid image upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("Invalid image upload: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("Image exceeds %d bytes", maxImageBytes)
	}

	mime := fh.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
