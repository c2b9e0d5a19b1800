package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/model"
	"github.com/judyrop/shop-backend/internal/service"
)

type ProductHTTP struct {
	S service.ProductService
	E ErrorWriter
}

func NewProductHTTP(s service.ProductService, e ErrorWriter) *ProductHTTP {
	return &ProductHTTP{S: s, E: e}
}

func (h *ProductHTTP) List(c *gin.Context) {
	var f service.ProductFilter
	if v, err := strconv.ParseUint(c.Query("category_id"), 10, 64); err == nil {
		f.CategoryID = uint(v)
	}
	f.Search = c.Query("search")
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		f.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil {
		f.Offset = v
	}

	products, err := h.S.List(c.Request.Context(), f)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHTTP) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.S.Get(c.Request.Context(), id)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) Create(c *gin.Context) {
	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Stock       int     `json:"stock"`
		ImageURL    string  `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}

	product, err := h.S.Create(c.Request.Context(), model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHTTP) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var upd service.ProductUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}
	product, err := h.S.Update(c.Request.Context(), id, upd)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.S.Delete(c.Request.Context(), id); err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
